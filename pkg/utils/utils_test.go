package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowhive/knowhive/pkg/errors"
)

func TestGenUniqID(t *testing.T) {
	SetupIDWorker(2)
	a, b := GenUniqIDStr(), GenUniqIDStr()
	assert.NotEqual(t, a, b)
	assert.Len(t, GenRandomID(), 32)
}

func TestMaskString(t *testing.T) {
	assert.Equal(t, "sk-***cd", MaskString("sk-abcdefabcd", 3, 2))
	assert.Equal(t, "***", MaskString("short", 3, 2))
}

func TestValidEmail(t *testing.T) {
	for email, want := range map[string]bool{
		"ann@x.com":       true,
		"ann42@x.com":     true,
		"Ann@x.com":       false,
		"ann.lee@x.com":   false,
		"ann@":            false,
		"no-at-sign.com":  false,
		" ann@x.com ":     true,
	} {
		assert.Equal(t, want, ValidEmail(email), email)
	}
}

func TestValidPassword(t *testing.T) {
	for password, want := range map[string]bool{
		"Str0ng!Pass":                         true,
		"str0ng!pass":                         false,
		"STR0NG!PASS":                         false,
		"Strong!Pass":                         false,
		"Str0ngPass":                          false,
		"S0!a":                                false,
		"Str0ng!Pass" + strings.Repeat("x", 30): false,
		"Str0ng!Pass" + strings.Repeat("x", 21): true,
		// 21 runes in 72 bytes, then 32 runes in 116 bytes
		"Aa1!" + strings.Repeat("😀", 17): true,
		"Aa1!" + strings.Repeat("😀", 28): false,
	} {
		assert.Equal(t, want, ValidPassword(password), password)
	}
}

type signup struct {
	Email    string `json:"email" binding:"required,kh_email"`
	Password string `json:"password" binding:"required,kh_password"`
}

func TestBindArgsWithGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RegisterBindingRules()

	bind := func(body string) error {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		var req signup
		return BindArgsWithGin(c, &req)
	}

	require.NoError(t, bind(`{"email":"ann@x.com","password":"Str0ng!Pass"}`))

	err := bind(`{"email":"Ann.Lee@x.com","password":"weak"}`)
	require.Error(t, err)
	var ce *errors.CustomizedError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusBadRequest, ce.GetCode())
	fields := ce.Data()["fields"].(map[string][]string)
	assert.Equal(t, []string{"field.rule.kh_email"}, fields["email"])
	assert.Equal(t, []string{"field.rule.kh_password"}, fields["password"])
}

package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/i18n"
)

type item struct {
	ID     string
	Secret string
}

type itemOut struct {
	ID string `json:"id"`
}

func toOut(i *item) itemOut {
	return itemOut{ID: i.ID}
}

func serve(t *testing.T, lang string, handler gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ProvideResponseLocalizer(i18n.NewDefaultLocalizer()), NewResponse())
	r.GET("/", handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	r.ServeHTTP(w, req)

	var body map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestCreatedWithModel(t *testing.T) {
	w, body := serve(t, "", func(c *gin.Context) {
		Created(c, &item{ID: "1", Secret: "hash"}, WithModel(toOut))
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Created", body["message"])
	assert.Equal(t, map[string]any{"id": "1"}, body["data"])
	assert.NotEmpty(t, body["request_id"])
	assert.Equal(t, body["request_id"], w.Header().Get(RequestIDHeader))
	assert.NotContains(t, w.Body.String(), "hash")
	assert.NotContains(t, body, "errors")
}

func TestOKWithModelOnSlice(t *testing.T) {
	w, body := serve(t, "", func(c *gin.Context) {
		OK(c, []*item{{ID: "1"}, {ID: "2"}}, WithModel(toOut))
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Success", body["message"])
	assert.Equal(t, []any{map[string]any{"id": "1"}, map[string]any{"id": "2"}}, body["data"])
}

func TestBadRequestLocalizesFieldErrors(t *testing.T) {
	w, body := serve(t, "zh-CN,zh;q=0.9", func(c *gin.Context) {
		BadRequest(c, map[string][]string{"email": {i18n.FIELD_EMAIL_TAKEN}})
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]any{"email": []any{"邮箱已被注册"}}, body["errors"])
	assert.NotContains(t, body, "data")
}

func TestAPIError(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{errors.ErrNotFound, http.StatusNotFound, "Resource not found"},
		{errors.ErrForbidden, http.StatusForbidden, "You do not have access to this resource"},
		{errors.New("Test", i18n.ERROR_UNAUTHORIZED, errors.ErrUnauthorized), http.StatusUnauthorized, "Unauthorized"},
		{errors.New("Test", i18n.ERROR_STATUS_TRANSITION, errors.ErrInvalidInput).WithData(map[string]any{"from": "ready", "to": "processing"}),
			http.StatusBadRequest, "Document status cannot change from ready to processing"},
		{fmt.Errorf("dial tcp 10.0.0.1: connection refused"), http.StatusInternalServerError, "Internal server error"},
		{errors.New("Test", i18n.ERROR_SECRET_STORE, errors.ErrStore), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		w, body := serve(t, "en", func(c *gin.Context) { APIError(c, tc.err) })
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Equal(t, tc.message, body["message"], tc.err.Error())
		assert.NotContains(t, w.Body.String(), "10.0.0.1")
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	w, _ := serve(t, "", func(c *gin.Context) {
		File(c, path, "notes.txt", "")
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "notes.txt")
}

func TestStream(t *testing.T) {
	w, _ := serve(t, "", func(c *gin.Context) {
		Stream(c, strings.NewReader("%PDF"), 4, "a.pdf", "")
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=a.pdf`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF", w.Body.String())
}

package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLang(t *testing.T) {
	l := NewDefaultLocalizer()
	assert.Equal(t, "Created", l.Get("en", MESSAGE_CREATED))
	assert.Equal(t, "已创建", l.Get("zh-CN", MESSAGE_CREATED))

	assert.Equal(t, "Document status cannot change from ready to processing", l.GetWithData("en", ERROR_STATUS_TRANSITION, map[string]any{
		"from": "ready",
		"to":   "processing",
	}))

	// unknown ids and languages fall back to the id
	assert.Equal(t, "no.such.key", l.Get("en", "no.such.key"))
	assert.Equal(t, MESSAGE_SUCCESS, l.Get("fr", MESSAGE_SUCCESS))
}

func TestMatchLang(t *testing.T) {
	assert.Equal(t, "en", MatchLang(""))
	assert.Equal(t, "zh-CN", MatchLang("zh-CN,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, "en", MatchLang("en-US,en;q=0.9"))
	assert.Equal(t, "en", MatchLang("fr-FR"))
}

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModelServer(t *testing.T, key string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		if r.URL.Path != "/models" || r.Header.Get("Authorization") != "Bearer "+key {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"id": "gpt-4o-mini", "object": "model", "owned_by": "openai"},
				{"id": "text-embedding-3-small", "object": "model", "owned_by": "openai"},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifyCredentials(t *testing.T) {
	srv := newModelServer(t, "sk-good", 0)
	ctx := context.Background()

	ok, err := New("sk-good", srv.URL, time.Second).VerifyCredentials(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	models, err := New("sk-good", srv.URL, time.Second).Models(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o-mini", "text-embedding-3-small"}, models)

	ok, err = New("sk-bad", srv.URL, time.Second).VerifyCredentials(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyCredentialsServerError(t *testing.T) {
	srv := newModelServer(t, "sk-good", http.StatusInternalServerError)

	ok, err := New("sk-good", srv.URL, time.Second).VerifyCredentials(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

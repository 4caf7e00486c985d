package vault

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowhive/knowhive/pkg/secret/vault/vaulttest"
)

func newTestClient(t *testing.T) (*Client, *vaulttest.Server) {
	t.Helper()
	srv := vaulttest.NewServer("root-token")
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{Addr: srv.URL, Token: "root-token"})
	require.NoError(t, err)
	return c, srv
}

func TestNew_Authentication(t *testing.T) {
	srv := vaulttest.NewServer("root-token")
	defer srv.Close()

	_, err := New(context.Background(), Config{Addr: srv.URL, Token: "wrong"})
	assert.True(t, errors.Is(err, ErrAuthentication))

	assert.Panics(t, func() {
		MustNew(context.Background(), Config{Addr: srv.URL, Token: "wrong"})
	})
}

func TestAPIConfigRetries(t *testing.T) {
	defaults := api.DefaultConfig()
	require.Positive(t, defaults.MaxRetries)

	assert.Equal(t, defaults.MaxRetries, apiConfig(Config{Addr: "http://127.0.0.1:8200"}).MaxRetries)
	assert.Equal(t, defaults.Timeout, apiConfig(Config{}).Timeout)
	assert.Equal(t, 7, apiConfig(Config{MaxRetries: 7}).MaxRetries)
}

func TestWriteAndRead(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	value, ok, err := c.ReadSecret(ctx, "user-1", "llm-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)

	require.NoError(t, c.WriteSecret(ctx, "user-1", "llm-1", "sk-first"))
	require.NoError(t, c.WriteSecret(ctx, "user-1", "llm-1", "sk-second"))
	assert.Equal(t, 2, srv.Versions(DEFAULT_MOUNT, "user-1/llm-1"))

	value, ok, err = c.ReadSecret(ctx, "user-1", "llm-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sk-second", value)

	// owners do not share credentials
	_, ok, err = c.ReadSecret(ctx, "user-2", "llm-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.DeleteSecret(ctx, "user-1", "llm-1"))
	_, ok, err = c.ReadSecret(ctx, "user-1", "llm-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFailuresAreOpaque(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
		srv.FailWith(status)

		_, _, err := c.ReadSecret(ctx, "user-1", "llm-1")
		assert.Equal(t, ErrStore, err, "read %d", status)

		err = c.WriteSecret(ctx, "user-1", "llm-1", "sk")
		assert.Equal(t, ErrStore, err, "write %d", status)

		err = c.DeleteSecret(ctx, "user-1", "llm-1")
		assert.Equal(t, ErrStore, err, "delete %d", status)
	}
}

func TestConcurrentUse(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, c.WriteSecret(ctx, "user-1", id, "sk-"+id))
			value, ok, err := c.ReadSecret(ctx, "user-1", id)
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "sk-"+id, value)
		}(id)
	}
	wg.Wait()
}

package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/vault/api"

	kherrors "github.com/knowhive/knowhive/pkg/errors"
)

const (
	DEFAULT_MOUNT = "secret"
	FIELD_API_KEY = "api_key"
)

var (
	ErrAuthentication = errors.New("secret store rejected the credentials")
	// ErrStore is the only failure kind callers see, whatever the backend reported.
	ErrStore = kherrors.ErrStore
)

type Config struct {
	Addr       string        `toml:"addr"`
	Token      string        `toml:"token"`
	Mount      string        `toml:"mount"`
	Timeout    time.Duration `toml:"-"`
	MaxRetries int           `toml:"max_retries"`
}

// Client stores per-user credentials in a KV v2 engine.
// One Client is shared by the whole process.
type Client struct {
	kv    *api.KVv2
	mount string
}

// apiConfig keeps the client defaults for every zero field.
func apiConfig(cfg Config) *api.Config {
	conf := api.DefaultConfig()
	conf.Address = cfg.Addr
	if cfg.MaxRetries > 0 {
		conf.MaxRetries = cfg.MaxRetries
	}
	if cfg.Timeout > 0 {
		conf.Timeout = cfg.Timeout
	}
	return conf
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	client, err := api.NewClient(apiConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to build secret store client: %w", err)
	}
	client.SetToken(cfg.Token)

	if _, err = client.Auth().Token().LookupSelfWithContext(ctx); err != nil {
		slog.Error("secret store authentication failed", slog.String("addr", cfg.Addr), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %s", ErrAuthentication, err.Error())
	}

	mount := cfg.Mount
	if mount == "" {
		mount = DEFAULT_MOUNT
	}
	return &Client{
		kv:    client.KVv2(mount),
		mount: mount,
	}, nil
}

// MustNew panics when the store cannot be reached or refuses the token.
func MustNew(ctx context.Context, cfg Config) *Client {
	c, err := New(ctx, cfg)
	if err != nil {
		panic(err)
	}
	return c
}

func secretPath(ownerID, credentialID string) string {
	return ownerID + "/" + credentialID
}

func (c *Client) fail(op, path string, err error) error {
	attrs := []any{slog.String("op", op), slog.String("mount", c.mount), slog.String("path", path), slog.String("error", err.Error())}
	var respErr *api.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusBadRequest {
		slog.Error("malformed secret store request", attrs...)
	} else {
		slog.Error("secret store failure", attrs...)
	}
	return ErrStore
}

// WriteSecret stores value as a new version of the owner's credential.
func (c *Client) WriteSecret(ctx context.Context, ownerID, credentialID, value string) error {
	path := secretPath(ownerID, credentialID)
	if _, err := c.kv.Put(ctx, path, map[string]any{FIELD_API_KEY: value}); err != nil {
		return c.fail("write", path, err)
	}
	return nil
}

// ReadSecret returns the latest value. A path that was never written reports false without an error.
func (c *Client) ReadSecret(ctx context.Context, ownerID, credentialID string) (string, bool, error) {
	path := secretPath(ownerID, credentialID)
	secret, err := c.kv.Get(ctx, path)
	if err != nil {
		if errors.Is(err, api.ErrSecretNotFound) {
			return "", false, nil
		}
		return "", false, c.fail("read", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", false, nil
	}

	value, ok := secret.Data[FIELD_API_KEY].(string)
	if !ok {
		return "", false, nil
	}
	return value, true, nil
}

// DeleteSecret removes every version of the credential.
func (c *Client) DeleteSecret(ctx context.Context, ownerID, credentialID string) error {
	path := secretPath(ownerID, credentialID)
	if err := c.kv.DeleteMetadata(ctx, path); err != nil {
		return c.fail("delete", path, err)
	}
	return nil
}

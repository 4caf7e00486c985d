package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowhive/knowhive/pkg/sqlstore"
)

func TestSetupConfigFromEnv(t *testing.T) {
	t.Setenv("KNOWHIVE_ADDR", "localhost:11111")
	t.Setenv("KNOWHIVE_DATABASE_DRIVER", sqlstore.DRIVER_SQLITE)
	t.Setenv("KNOWHIVE_VAULT_MOUNT", "kv")
	t.Setenv("KNOWHIVE_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("KNOWHIVE_LLM_VERIFY_CREDENTIALS", "true")
	t.Setenv("KNOWHIVE_OBJECT_STORAGE_DRIVER", OBJECT_STORAGE_S3)
	t.Setenv("KNOWHIVE_S3_BUCKET", "docs")
	t.Setenv("KNOWHIVE_TOKEN_TTL_MINUTES", "not-a-number")

	cfg := LoadBaseConfigFromENV()

	assert.Equal(t, "localhost:11111", cfg.Addr)
	assert.Equal(t, sqlstore.DRIVER_SQLITE, cfg.Database.DriverName())
	assert.Equal(t, "kv", cfg.Vault.Mount)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Cors.Origins)
	assert.True(t, cfg.LLM.VerifyCredentials)
	require.NotNil(t, cfg.ObjectStorage.S3)
	assert.Equal(t, "docs", cfg.ObjectStorage.S3.Bucket)
	assert.Equal(t, 24*time.Hour, cfg.Security.TokenTTL())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowhive.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr = ":8080"

[database]
driver = "postgres"
dsn = "postgres://kh@localhost/kh?sslmode=disable"

[vault]
addr = "http://127.0.0.1:8200"
token = "root"
max_retries = 5

[process]
purge_after_hours = 48
`), 0o600))

	cfg := MustLoadBaseConfig(path)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "postgres://kh@localhost/kh?sslmode=disable", cfg.Database.FormatDSN())
	assert.Equal(t, "secret", cfg.Vault.Mount)
	assert.Equal(t, 10*time.Second, cfg.Vault.ClientConfig().Timeout)
	assert.Equal(t, 5, cfg.Vault.ClientConfig().MaxRetries)
	assert.Equal(t, 48*time.Hour, cfg.Process.PurgeAfter())
	assert.Equal(t, "@daily", cfg.Process.PurgeSpec)

	assert.Panics(t, func() { MustLoadBaseConfig(filepath.Join(t.TempDir(), "missing.toml")) })
}

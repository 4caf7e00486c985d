// Package coretest assembles a Core on in-memory collaborators for handler and logic tests.
package coretest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/knowhive/knowhive/app/core"
	"github.com/knowhive/knowhive/app/store/sqlstore"
	"github.com/knowhive/knowhive/app/validator"
	"github.com/knowhive/knowhive/pkg/object-storage/local"
	"github.com/knowhive/knowhive/pkg/secret/vault"
	"github.com/knowhive/knowhive/pkg/secret/vault/vaulttest"
	"github.com/knowhive/knowhive/pkg/testutils"
)

const TOKEN = "test-token"

type Env struct {
	Core  *core.Core
	Vault *vaulttest.Server
}

// New wires sqlite, a fake secret store and a temp dir object store.
// checker may be nil to skip remote credential checks.
func New(t testing.TB, checker validator.CredentialChecker) Env {
	t.Helper()

	store := sqlstore.NewProvider(testutils.NewMemoryProvider(t))
	require.NoError(t, store.Install(context.Background()))

	vs := vaulttest.NewServer(TOKEN)
	t.Cleanup(vs.Close)
	secrets, err := vault.New(context.Background(), vault.Config{Addr: vs.URL, Token: TOKEN})
	require.NoError(t, err)

	disk, err := local.New(t.TempDir())
	require.NoError(t, err)

	cfg := core.DefaultConfig()
	cfg.Log.Level = "error"
	cfg.Security.JWTSecret = "test-secret"
	cfg.RateLimit.PerMinute = 0

	c := core.MustSetupCore(cfg,
		core.WithStore(store),
		core.WithSecretStore(secrets),
		core.WithObjectStorage(disk),
		core.WithCredentialChecker(checker),
	)
	return Env{Core: c, Vault: vs}
}

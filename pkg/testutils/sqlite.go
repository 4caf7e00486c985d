package testutils

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/knowhive/knowhive/pkg/sqlstore"
)

type memoryDatabase struct {
	name string
}

func (m memoryDatabase) DriverName() string {
	return sqlstore.DRIVER_SQLITE
}

func (m memoryDatabase) FormatDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=UTC", m.name)
}

// NewMemoryProvider opens a private in-memory sqlite database that lives until the test ends.
func NewMemoryProvider(t testing.TB) *sqlstore.SqlProvider {
	t.Helper()

	provider, err := sqlstore.NewProvider(memoryDatabase{
		name: "kh_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
	})
	require.NoError(t, err)
	require.NoError(t, provider.Ping(context.Background()))

	t.Cleanup(func() {
		_ = provider.Close()
	})
	return provider
}

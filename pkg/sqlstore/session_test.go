package sqlstore_test

import (
	"context"
	"fmt"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/testutils"
)

func setupItems(t *testing.T) *sqlstore.SqlProvider {
	t.Helper()
	p := testutils.NewMemoryProvider(t)
	_, err := p.GetMaster().Exec(`CREATE TABLE items (id TEXT PRIMARY KEY, user_id TEXT NOT NULL, name TEXT NOT NULL, deleted_at TIMESTAMP);
INSERT INTO items (id, user_id, name, deleted_at) VALUES ('a', 'u1', 'alpha', NULL), ('b', 'u2', 'beta', NULL), ('c', 'u1', 'gone', '2024-01-01 00:00:00');`)
	require.NoError(t, err)
	return p
}

func TestSession_Ownership(t *testing.T) {
	p := setupItems(t)
	s := p.OpenSession(context.Background())
	defer s.Close()

	ctx := context.Background()
	cases := map[string]sqlstore.Ownership{
		"a":       sqlstore.OwnershipOwned,
		"b":       sqlstore.OwnershipForeign,
		"c":       sqlstore.OwnershipAbsent, // soft-deleted
		"missing": sqlstore.OwnershipAbsent,
	}
	for id, want := range cases {
		got, err := s.Ownership(ctx, "items", "user_id", id, "u1")
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}
}

func TestSession_Exists(t *testing.T) {
	p := setupItems(t)
	s := p.OpenSession(context.Background())
	defer s.Close()

	ok, err := s.Exists(context.Background(), "items", sq.Eq{"name": "gone"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(context.Background(), "items", sq.Eq{"name": "gone", "deleted_at": nil})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_CloseCancelsQueries(t *testing.T) {
	p := setupItems(t)
	s := p.OpenSession(context.Background())
	s.Close()
	s.Close()

	assert.Error(t, s.Context().Err())
	_, err := s.Exists(context.Background(), "items", sq.Eq{"id": "a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransactionJoinsOuter(t *testing.T) {
	p := setupItems(t)
	ctx := context.Background()

	err := p.Transaction(ctx, func(ctx context.Context) error {
		outer := p.GetTxFromCtx(ctx)
		require.NotNil(t, outer)
		return p.Transaction(ctx, func(ctx context.Context) error {
			assert.Same(t, outer, p.GetTxFromCtx(ctx))
			_, err := p.GetTxFromCtx(ctx).Exec(`UPDATE items SET name = 'renamed' WHERE id = 'a'`)
			return err
		})
	})
	require.NoError(t, err)

	var name string
	require.NoError(t, p.GetMaster().Get(&name, `SELECT name FROM items WHERE id = 'a'`))
	assert.Equal(t, "renamed", name)
}

func TestIsUniqueViolation(t *testing.T) {
	p := setupItems(t)

	_, err := p.GetMaster().Exec(`INSERT INTO items (id, user_id, name) VALUES ('a', 'u1', 'again')`)
	require.Error(t, err)
	assert.True(t, sqlstore.IsUniqueViolation(err))
	assert.True(t, sqlstore.IsUniqueViolation(fmt.Errorf("insert: %w", err)))

	_, err = p.GetMaster().Exec(`INSERT INTO items (id, user_id) VALUES ('z', 'u1')`)
	require.Error(t, err, "name is NOT NULL")
	assert.False(t, sqlstore.IsUniqueViolation(err))

	assert.False(t, sqlstore.IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, sqlstore.IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, sqlstore.IsUniqueViolation(nil))
}

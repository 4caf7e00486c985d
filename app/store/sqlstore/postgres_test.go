package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowhive/knowhive/pkg/sqlstore"
)

func newMockProvider(t *testing.T) (*Provider, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProvider(sqlstore.NewProviderFromDB(db, sqlstore.DRIVER_POSTGRES)), mock
}

var userColumns = []string{"id", "created_at", "updated_at", "deleted_at", "first_name", "last_name", "email", "password"}

func TestPostgres_GetByID(t *testing.T) {
	p, mock := newMockProvider(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, created_at, updated_at, deleted_at, first_name, last_name, email, password FROM kh_user WHERE deleted_at IS NULL AND id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow("u1", now, now, nil, "Ada", "Lovelace", "ada@example.com", "hash"))

	u, err := p.UserStore().GetByID(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateByID(t *testing.T) {
	p, mock := newMockProvider(t)
	prev := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT updated_at FROM kh_user WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(prev))
	// the clock is behind the stored value, so the row moves one microsecond forward
	mock.ExpectExec(`UPDATE kh_user SET first_name = \$1, updated_at = \$2 WHERE id = \$3 AND deleted_at IS NULL`).
		WithArgs("Augusta", prev.Add(time.Microsecond), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM kh_user WHERE deleted_at IS NULL AND id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow("u1", prev, prev.Add(time.Microsecond), nil, "Augusta", "Lovelace", "ada@example.com", "hash"))

	u, err := p.UserStore().UpdateByID(context.Background(), "u1", map[string]any{"first_name": "Augusta"})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Augusta", u.FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_MarkDeleted(t *testing.T) {
	p, mock := newMockProvider(t)

	mock.ExpectExec(`UPDATE kh_llm SET deleted_at = \$1, updated_at = \$2 WHERE deleted_at IS NULL AND id = \$3`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "l1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := p.LLMStore().MarkDeletedByID(context.Background(), "l1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Nearest(t *testing.T) {
	p, mock := newMockProvider(t)
	vec := pgvector.NewVector([]float32{1, 0})

	mock.ExpectQuery(`SELECT .+ FROM kh_chunk WHERE deleted_at IS NULL AND document_id IN \(\$1,\$2\) AND status = \$3 AND vector IS NOT NULL ORDER BY vector <=> \$4 LIMIT 3`).
		WithArgs("d1", "d2", true, vec).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "content"}).AddRow("c1", "d1", "hello"))

	chunks, err := p.ChunkStore().Nearest(context.Background(), []string{"d1", "d2"}, vec, 3)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello", chunks[0].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"

	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/register"
	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ChunkStore = NewChunkStore(provider)
	})
}

type ChunkStore struct {
	*Repository[types.Chunk, *types.Chunk]
}

func NewChunkStore(provider SqlProviderAchieve) *ChunkStore {
	return &ChunkStore{
		Repository: NewRepository[types.Chunk](provider),
	}
}

func (s *ChunkStore) ListByDocument(ctx context.Context, documentID string) ([]*types.Chunk, error) {
	return s.GetAll(ctx, map[string]any{"document_id": documentID})
}

func (s *ChunkStore) Nearest(ctx context.Context, documentIDs []string, vector pgvector.Vector, limit uint64) ([]*types.Chunk, error) {
	if s.provider.Driver() != sqlstore.DRIVER_POSTGRES {
		return nil, fmt.Errorf("%w: vector search needs the postgres driver", errors.ErrConfiguration)
	}

	query := s.selectLive().
		Where(sq.Eq{"document_id": documentIDs, "status": true}).
		Where(sq.NotEq{"vector": nil}).
		OrderByClause("vector <=> ?", vector).
		Limit(limit)

	return s.list(ctx, query)
}

package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/knowhive/knowhive/pkg/register"
	"github.com/knowhive/knowhive/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.DocumentStore = NewDocumentStore(provider)
	})
}

type DocumentStore struct {
	*Repository[types.Document, *types.Document]
}

func NewDocumentStore(provider SqlProviderAchieve) *DocumentStore {
	return &DocumentStore{
		Repository: NewRepository[types.Document](provider),
	}
}

func (s *DocumentStore) ListByKnowledgeBase(ctx context.Context, kbID string) ([]*types.Document, error) {
	return s.GetAll(ctx, map[string]any{"knowledge_base_id": kbID})
}

func (s *DocumentStore) SetStatus(ctx context.Context, id string, from, to types.DocumentStatus, progress int) (bool, error) {
	query := s.Builder().Update(s.GetTable()).
		Set("status", to).
		Set("progress", progress).
		Set(types.COLUMN_UPDATED_AT, s.now()).
		Where(sq.Eq{types.COLUMN_ID: id, "status": from}).
		Where(live())

	affected, err := s.exec(ctx, query)
	return affected > 0, err
}

func (s *DocumentStore) IncrChunkCount(ctx context.Context, id string, delta int64) error {
	query := s.Builder().Update(s.GetTable()).
		Set("chunk_count", sq.Expr("chunk_count + ?", delta)).
		Set(types.COLUMN_UPDATED_AT, s.now()).
		Where(sq.Eq{types.COLUMN_ID: id}).
		Where(live())

	_, err := s.exec(ctx, query)
	return err
}

package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/knowhive/knowhive/pkg/register"
	"github.com/knowhive/knowhive/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.KnowledgeBaseStore = NewKnowledgeBaseStore(provider)
	})
}

type KnowledgeBaseStore struct {
	*Repository[types.KnowledgeBase, *types.KnowledgeBase]
}

func NewKnowledgeBaseStore(provider SqlProviderAchieve) *KnowledgeBaseStore {
	return &KnowledgeBaseStore{
		Repository: NewRepository[types.KnowledgeBase](provider),
	}
}

func (s *KnowledgeBaseStore) ListByUser(ctx context.Context, userID string) ([]*types.KnowledgeBase, error) {
	return s.GetAll(ctx, map[string]any{types.COLUMN_USER_ID: userID})
}

// IncrDocumentCount adds delta to the denormalized counter of a live knowledge base.
func (s *KnowledgeBaseStore) IncrDocumentCount(ctx context.Context, id string, delta int64) error {
	query := s.Builder().Update(s.GetTable()).
		Set("document_count", sq.Expr("document_count + ?", delta)).
		Set(types.COLUMN_UPDATED_AT, s.now()).
		Where(sq.Eq{types.COLUMN_ID: id}).
		Where(live())

	_, err := s.exec(ctx, query)
	return err
}

func (s *KnowledgeBaseStore) ReconcileDocumentCount(ctx context.Context) (int64, error) {
	counted := fmt.Sprintf("(SELECT COUNT(*) FROM %s d WHERE d.knowledge_base_id = %s.id AND d.deleted_at IS NULL)",
		types.TABLE_DOCUMENT.Name(), s.GetTable())

	query := s.Builder().Update(s.GetTable()).
		Set("document_count", sq.Expr(counted)).
		Set(types.COLUMN_UPDATED_AT, s.now()).
		Where(live()).
		Where(sq.Expr("document_count <> " + counted))

	return s.exec(ctx, query)
}

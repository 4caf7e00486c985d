package sqlstore

import (
	"context"

	"github.com/knowhive/knowhive/pkg/register"
	"github.com/knowhive/knowhive/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.AssistantStore = NewAssistantStore(provider)
	})
}

type AssistantStore struct {
	*Repository[types.Assistant, *types.Assistant]
}

func NewAssistantStore(provider SqlProviderAchieve) *AssistantStore {
	return &AssistantStore{
		Repository: NewRepository[types.Assistant](provider),
	}
}

func (s *AssistantStore) ListByUser(ctx context.Context, userID string) ([]*types.Assistant, error) {
	return s.GetAll(ctx, map[string]any{types.COLUMN_USER_ID: userID})
}

package sqlstore

import (
	"context"

	"github.com/knowhive/knowhive/pkg/register"
	"github.com/knowhive/knowhive/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.LLMStore = NewLLMStore(provider)
	})
}

type LLMStore struct {
	*Repository[types.LLM, *types.LLM]
}

func NewLLMStore(provider SqlProviderAchieve) *LLMStore {
	return &LLMStore{
		Repository: NewRepository[types.LLM](provider),
	}
}

func (s *LLMStore) ListByUser(ctx context.Context, userID string) ([]*types.LLM, error) {
	return s.GetAll(ctx, map[string]any{types.COLUMN_USER_ID: userID})
}

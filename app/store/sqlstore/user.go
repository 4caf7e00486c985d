package sqlstore

import (
	"context"
	"strings"

	"github.com/knowhive/knowhive/pkg/register"
	"github.com/knowhive/knowhive/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.UserStore = NewUserStore(provider)
	})
}

type UserStore struct {
	*Repository[types.User, *types.User]
}

func NewUserStore(provider SqlProviderAchieve) *UserStore {
	return &UserStore{
		Repository: NewRepository[types.User](provider),
	}
}

// GetByEmail looks the live user up by its lower-cased email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	return s.GetByField(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

package v1

import (
	"context"

	"github.com/knowhive/knowhive/app/core"
	"github.com/knowhive/knowhive/pkg/security"
	"github.com/knowhive/knowhive/pkg/sqlstore"
)

const (
	TOKEN_CONTEXT_KEY   = "__knowhive.token_claims"
	SESSION_CONTEXT_KEY = "__knowhive.session"
)

func WithTokenClaims(ctx context.Context, claims security.TokenClaims) context.Context {
	return context.WithValue(ctx, TOKEN_CONTEXT_KEY, claims)
}

func InjectTokenClaim(ctx context.Context) (security.TokenClaims, bool) {
	val, ok := ctx.Value(TOKEN_CONTEXT_KEY).(security.TokenClaims)
	return val, ok
}

func WithSession(ctx context.Context, session *sqlstore.Session) context.Context {
	return context.WithValue(ctx, SESSION_CONTEXT_KEY, session)
}

func InjectSession(ctx context.Context) (*sqlstore.Session, bool) {
	val, ok := ctx.Value(SESSION_CONTEXT_KEY).(*sqlstore.Session)
	return val, ok && val != nil
}

// sessionFrom returns the request session, or opens one scoped to ctx when the
// caller runs outside the http middleware. release must always be called.
func sessionFrom(ctx context.Context, core *core.Core) (session *sqlstore.Session, release func()) {
	if s, ok := InjectSession(ctx); ok {
		return s, func() {}
	}
	s := core.Store().OpenSession(ctx)
	return s, s.Close
}

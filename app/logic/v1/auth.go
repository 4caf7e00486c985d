package v1

import (
	"context"

	"github.com/knowhive/knowhive/app/core"
	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/security"
	"github.com/knowhive/knowhive/pkg/types"
)

type AuthLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewAuthLogic(ctx context.Context, core *core.Core) *AuthLogic {
	return &AuthLogic{
		ctx:  ctx,
		core: core,
	}
}

// Login exchanges email and password for a bearer token.
// An unknown email and a wrong password give the same answer.
func (l *AuthLogic) Login(req types.UserLogin) (types.LoginResult, error) {
	user, err := l.core.Store().UserStore().GetByEmail(l.ctx, req.Email)
	if err != nil {
		return types.LoginResult{}, errors.New("AuthLogic.Login.UserStore.GetByEmail", i18n.ERROR_INTERNAL, err)
	}
	if user == nil || !security.CheckPassword(user.Password, req.Password) {
		return types.LoginResult{}, errors.New("AuthLogic.Login", i18n.ERROR_LOGIN_ACCOUNT_INCORRECT, errors.ErrUnauthorized)
	}

	cfg := l.core.Cfg().Security
	token, expiresAt, err := security.GenerateJWT(user.ID, []byte(cfg.JWTSecret), cfg.TokenTTL())
	if err != nil {
		return types.LoginResult{}, errors.New("AuthLogic.Login.GenerateJWT", i18n.ERROR_INTERNAL, err)
	}

	return types.LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.Unix(),
		User:        types.NewUserOut(user),
	}, nil
}

// ParseToken resolves a bearer token to the claims of a live user.
func (l *AuthLogic) ParseToken(token string) (security.TokenClaims, error) {
	claims, err := security.VerifyToken(token, []byte(l.core.Cfg().Security.JWTSecret))
	if err != nil {
		return security.TokenClaims{}, errors.New("AuthLogic.ParseToken", i18n.ERROR_INVALID_TOKEN, errors.Join(errors.ErrUnauthorized, err))
	}

	user, err := l.core.Store().UserStore().GetByID(l.ctx, claims.GetUser())
	if err != nil {
		return security.TokenClaims{}, errors.New("AuthLogic.ParseToken.UserStore.GetByID", i18n.ERROR_INTERNAL, err)
	}
	if user == nil {
		return security.TokenClaims{}, errors.New("AuthLogic.ParseToken", i18n.ERROR_UNAUTHORIZED, errors.ErrUnauthorized)
	}
	return *claims, nil
}

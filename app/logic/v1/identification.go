package v1

import (
	"context"
	"log/slog"

	"github.com/knowhive/knowhive/app/core"
	"github.com/knowhive/knowhive/app/store"
	"github.com/knowhive/knowhive/app/validator"
	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/security"
	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

type UserInfo struct {
	claims security.TokenClaims
}

func SetupUserInfo(ctx context.Context) UserInfo {
	claims, ok := InjectTokenClaim(ctx)
	if !ok {
		slog.Error("Not found user in context", slog.String("component", "logic.v1.SetupUserInfo"))
	}
	return UserInfo{claims: claims}
}

func (u UserInfo) GetUserInfo() security.TokenClaims {
	return u.claims
}

func (u UserInfo) UserID() string {
	return u.claims.GetUser()
}

// ownedEntity loads the live row id of table when ownerColumn holds userID.
// A missing row answers 404 and a row of another user answers 403.
func ownedEntity[T any](ctx context.Context, session *sqlstore.Session, repo store.Repository[T], table types.TableName, ownerColumn, id, userID, trace string) (*T, error) {
	ownership, err := session.Ownership(ctx, table.Name(), ownerColumn, id, userID)
	if err != nil {
		return nil, errors.New(trace+".Ownership", i18n.ERROR_INTERNAL, err)
	}
	switch ownership {
	case sqlstore.OwnershipAbsent:
		return nil, errors.New(trace, i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
	case sqlstore.OwnershipForeign:
		return nil, errors.New(trace, i18n.ERROR_FORBIDDEN, errors.ErrForbidden)
	}

	ctx, cancel := session.Bind(ctx)
	defer cancel()
	entity, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New(trace+".GetByID", i18n.ERROR_INTERNAL, err)
	}
	if entity == nil {
		return nil, errors.New(trace, i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
	}
	return entity, nil
}

type validatable interface {
	IsValid(ctx context.Context, op validator.Operation) (bool, error)
	Errors() validator.FieldErrors
}

func validationError(trace string, fields validator.FieldErrors) error {
	return errors.New(trace, i18n.ERROR_VALIDATION, errors.ErrInvalidInput).
		WithData(map[string]any{"fields": map[string][]string(fields)})
}

// runValidation turns failed checks into a 400 carrying the field errors.
func runValidation(ctx context.Context, core *core.Core, entity string, v validatable, op validator.Operation, trace string) error {
	timer := core.Metrics().ValidationTimer(entity, opName(op))
	defer timer.ObserveDuration()

	ok, err := v.IsValid(ctx, op)
	if err != nil {
		return errors.New(trace+".IsValid", i18n.ERROR_INTERNAL, err)
	}
	if !ok {
		return validationError(trace, v.Errors())
	}
	return nil
}

func opName(op validator.Operation) string {
	switch op {
	case validator.OpSave:
		return "save"
	case validator.OpUpdate:
		return "update"
	}
	return "validate"
}

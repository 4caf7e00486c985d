package v1

import (
	"context"

	"github.com/knowhive/knowhive/app/core"
	"github.com/knowhive/knowhive/app/validator"
	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

// UserLogic serves account registration and the self-service account routes.
type UserLogic struct {
	UserInfo
	ctx  context.Context
	core *core.Core
}

func NewUserLogic(ctx context.Context, core *core.Core) *UserLogic {
	return &UserLogic{
		UserInfo: SetupUserInfo(ctx),
		ctx:      ctx,
		core:     core,
	}
}

// Create registers a user, it needs no token.
func (l *UserLogic) Create(req types.UserCreate) (*types.User, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	v := validator.NewUserValidator(session, l.core.Store().UserStore(), req, "")
	if err := runValidation(l.ctx, l.core, "user", v, validator.OpSave, "UserLogic.Create"); err != nil {
		return nil, err
	}

	user, err := v.Save(l.ctx)
	if err != nil {
		// a concurrent signup can take the email between the check and the insert
		if sqlstore.IsUniqueViolation(err) {
			return nil, validationError("UserLogic.Create.Save", validator.FieldErrors{"email": {i18n.FIELD_EMAIL_TAKEN}})
		}
		return nil, errors.New("UserLogic.Create.Save", i18n.ERROR_INTERNAL, err)
	}
	return user, nil
}

func (l *UserLogic) self(session *sqlstore.Session, id string) (*types.User, error) {
	return ownedEntity[types.User](l.ctx, session, l.core.Store().UserStore(), types.TABLE_USER, types.COLUMN_ID, id, l.UserID(), "UserLogic.self")
}

func (l *UserLogic) Get(id string) (*types.User, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()
	return l.self(session, id)
}

func (l *UserLogic) Update(id string, req types.UserUpdate) (*types.User, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	existing, err := l.self(session, id)
	if err != nil {
		return nil, err
	}

	v := validator.NewUserValidator(session, l.core.Store().UserStore(), req, l.UserID())
	if err = runValidation(l.ctx, l.core, "user", v, validator.OpUpdate, "UserLogic.Update"); err != nil {
		return nil, err
	}

	user, err := v.Update(l.ctx, existing, true)
	if err != nil {
		return nil, errors.New("UserLogic.Update.Update", i18n.ERROR_INTERNAL, err)
	}
	if user == nil {
		return nil, errors.New("UserLogic.Update", i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
	}
	return user, nil
}

// Delete soft-deletes the account. Its email stays taken.
func (l *UserLogic) Delete(id string) error {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	if _, err := l.self(session, id); err != nil {
		return err
	}

	ctx, cancel := session.Bind(l.ctx)
	defer cancel()
	if _, err := l.core.Store().UserStore().MarkDeletedByID(ctx, id); err != nil {
		return errors.New("UserLogic.Delete.MarkDeletedByID", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

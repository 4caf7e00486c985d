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

type AssistantLogic struct {
	UserInfo
	ctx  context.Context
	core *core.Core
}

func NewAssistantLogic(ctx context.Context, core *core.Core) *AssistantLogic {
	return &AssistantLogic{
		UserInfo: SetupUserInfo(ctx),
		ctx:      ctx,
		core:     core,
	}
}

func (l *AssistantLogic) owned(session *sqlstore.Session, id string) (*types.Assistant, error) {
	return ownedEntity[types.Assistant](l.ctx, session, l.core.Store().AssistantStore(), types.TABLE_ASSISTANT, types.COLUMN_USER_ID, id, l.UserID(), "AssistantLogic.owned")
}

func (l *AssistantLogic) Create(req types.AssistantCreate) (*types.Assistant, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	v := validator.NewAssistantValidator(session, l.core.Store().AssistantStore(), req, l.UserID())
	if err := runValidation(l.ctx, l.core, "assistant", v, validator.OpSave, "AssistantLogic.Create"); err != nil {
		return nil, err
	}

	assistant, err := v.Save(l.ctx)
	if err != nil {
		return nil, errors.New("AssistantLogic.Create.Save", i18n.ERROR_INTERNAL, err)
	}
	return assistant, nil
}

func (l *AssistantLogic) List() ([]*types.Assistant, error) {
	list, err := l.core.Store().AssistantStore().ListByUser(l.ctx, l.UserID())
	if err != nil {
		return nil, errors.New("AssistantLogic.List.ListByUser", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

func (l *AssistantLogic) Get(id string) (*types.Assistant, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()
	return l.owned(session, id)
}

func (l *AssistantLogic) Update(id string, req types.AssistantUpdate) (*types.Assistant, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	existing, err := l.owned(session, id)
	if err != nil {
		return nil, err
	}

	v := validator.NewAssistantValidator(session, l.core.Store().AssistantStore(), req, l.UserID())
	if err = runValidation(l.ctx, l.core, "assistant", v, validator.OpUpdate, "AssistantLogic.Update"); err != nil {
		return nil, err
	}

	assistant, err := v.Update(l.ctx, existing, true)
	if err != nil {
		return nil, errors.New("AssistantLogic.Update.Update", i18n.ERROR_INTERNAL, err)
	}
	if assistant == nil {
		return nil, errors.New("AssistantLogic.Update", i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
	}
	return assistant, nil
}

func (l *AssistantLogic) Delete(id string) error {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	if _, err := l.owned(session, id); err != nil {
		return err
	}
	if _, err := l.core.Store().AssistantStore().MarkDeletedByID(l.ctx, id); err != nil {
		return errors.New("AssistantLogic.Delete.MarkDeletedByID", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

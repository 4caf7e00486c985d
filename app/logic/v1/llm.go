package v1

import (
	"context"
	"log/slog"

	"github.com/knowhive/knowhive/app/core"
	"github.com/knowhive/knowhive/app/validator"
	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

// LLMLogic manages model configurations. Their api keys only ever travel between
// the request and the secret store.
type LLMLogic struct {
	UserInfo
	ctx  context.Context
	core *core.Core
}

func NewLLMLogic(ctx context.Context, core *core.Core) *LLMLogic {
	return &LLMLogic{
		UserInfo: SetupUserInfo(ctx),
		ctx:      ctx,
		core:     core,
	}
}

func (l *LLMLogic) owned(session *sqlstore.Session, id string) (*types.LLM, error) {
	return ownedEntity[types.LLM](l.ctx, session, l.core.Store().LLMStore(), types.TABLE_LLM, types.COLUMN_USER_ID, id, l.UserID(), "LLMLogic.owned")
}

func (l *LLMLogic) writeKey(llmID, key string) error {
	if err := l.core.Secrets().WriteSecret(l.ctx, l.UserID(), llmID, key); err != nil {
		l.core.Metrics().SecretStoreErrorInc("write")
		return errors.New("LLMLogic.WriteSecret", i18n.ERROR_SECRET_STORE, err)
	}
	return nil
}

func (l *LLMLogic) Create(req types.LLMCreate) (*types.LLM, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	v := validator.NewLLMValidator(session, l.core.Store().LLMStore(), req, l.UserID(), l.core.CredentialChecker())
	if err := runValidation(l.ctx, l.core, "llm", v, validator.OpSave, "LLMLogic.Create"); err != nil {
		return nil, err
	}

	llm, err := v.Save(l.ctx)
	if err != nil {
		return nil, errors.New("LLMLogic.Create.Save", i18n.ERROR_INTERNAL, err)
	}

	key, _ := v.APIKey()
	if err = l.writeKey(llm.ID, key); err != nil {
		// a configuration without its key is unusable
		if _, rerr := l.core.Store().LLMStore().DeleteByID(l.ctx, llm.ID); rerr != nil {
			slog.Error("failed to roll back llm without secret", slog.String("llm_id", llm.ID), slog.Any("error", rerr))
		}
		return nil, errors.Trace("LLMLogic.Create", err)
	}
	return llm, nil
}

func (l *LLMLogic) List() ([]*types.LLM, error) {
	list, err := l.core.Store().LLMStore().ListByUser(l.ctx, l.UserID())
	if err != nil {
		return nil, errors.New("LLMLogic.List.LLMStore.ListByUser", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

func (l *LLMLogic) Get(id string) (*types.LLM, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()
	return l.owned(session, id)
}

// Update patches the sent fields. A new api key replaces the stored one as a new secret version.
func (l *LLMLogic) Update(id string, req types.LLMUpdate) (*types.LLM, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	existing, err := l.owned(session, id)
	if err != nil {
		return nil, err
	}

	v := validator.NewLLMValidator(session, l.core.Store().LLMStore(), req, l.UserID(), nil)
	if err = runValidation(l.ctx, l.core, "llm", v, validator.OpUpdate, "LLMLogic.Update"); err != nil {
		return nil, err
	}

	if key, ok := v.APIKey(); ok {
		if err = l.writeKey(id, key); err != nil {
			return nil, errors.Trace("LLMLogic.Update", err)
		}
	}

	llm, err := v.Update(l.ctx, existing, true)
	if err != nil {
		return nil, errors.New("LLMLogic.Update.Update", i18n.ERROR_INTERNAL, err)
	}
	if llm == nil {
		return nil, errors.New("LLMLogic.Update", i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
	}
	return llm, nil
}

// Delete removes the stored key first, so a failure leaves the configuration intact.
func (l *LLMLogic) Delete(id string) error {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	if _, err := l.owned(session, id); err != nil {
		return err
	}

	if err := l.core.Secrets().DeleteSecret(l.ctx, l.UserID(), id); err != nil {
		l.core.Metrics().SecretStoreErrorInc("delete")
		return errors.New("LLMLogic.Delete.DeleteSecret", i18n.ERROR_SECRET_STORE, err)
	}
	if _, err := l.core.Store().LLMStore().MarkDeletedByID(l.ctx, id); err != nil {
		return errors.New("LLMLogic.Delete.MarkDeletedByID", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

// Verify reads the stored key and asks the provider whether it still accepts it.
func (l *LLMLogic) Verify(id string) (types.LLMVerifyResult, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	llm, err := l.owned(session, id)
	if err != nil {
		return types.LLMVerifyResult{}, err
	}

	key, found, err := l.core.Secrets().ReadSecret(l.ctx, l.UserID(), id)
	if err != nil {
		l.core.Metrics().SecretStoreErrorInc("read")
		return types.LLMVerifyResult{}, errors.New("LLMLogic.Verify.ReadSecret", i18n.ERROR_SECRET_STORE, err)
	}
	if !found {
		return types.LLMVerifyResult{Valid: false}, nil
	}

	checker := l.core.CredentialChecker()
	if checker == nil {
		checker = validator.OpenAICredentialChecker(l.core.Cfg().LLM.Timeout())
	}
	valid, err := checker(l.ctx, key, llm.APIBase)
	if err != nil {
		return types.LLMVerifyResult{}, errors.New("LLMLogic.Verify.Checker", i18n.ERROR_INTERNAL, err)
	}
	l.core.Metrics().CredentialCheckInc(valid)
	return types.LLMVerifyResult{Valid: valid}, nil
}

package v1

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/knowhive/knowhive/app/core"
	"github.com/knowhive/knowhive/app/validator"
	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

type KnowledgeBaseLogic struct {
	UserInfo
	ctx  context.Context
	core *core.Core
}

func NewKnowledgeBaseLogic(ctx context.Context, core *core.Core) *KnowledgeBaseLogic {
	return &KnowledgeBaseLogic{
		UserInfo: SetupUserInfo(ctx),
		ctx:      ctx,
		core:     core,
	}
}

func ownedKnowledgeBase(ctx context.Context, core *core.Core, session *sqlstore.Session, id, userID string) (*types.KnowledgeBase, error) {
	return ownedEntity[types.KnowledgeBase](ctx, session, core.Store().KnowledgeBaseStore(), types.TABLE_KNOWLEDGE_BASE, types.COLUMN_USER_ID, id, userID, "ownedKnowledgeBase")
}

func (l *KnowledgeBaseLogic) Create(req types.KnowledgeBaseCreate) (*types.KnowledgeBase, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	v := validator.NewKnowledgeBaseValidator(session, l.core.Store().KnowledgeBaseStore(), req, l.UserID())
	if err := runValidation(l.ctx, l.core, "knowledge_base", v, validator.OpSave, "KnowledgeBaseLogic.Create"); err != nil {
		return nil, err
	}

	kb, err := v.Save(l.ctx)
	if err != nil {
		return nil, errors.New("KnowledgeBaseLogic.Create.Save", i18n.ERROR_INTERNAL, err)
	}
	return kb, nil
}

func (l *KnowledgeBaseLogic) List() ([]*types.KnowledgeBase, error) {
	list, err := l.core.Store().KnowledgeBaseStore().ListByUser(l.ctx, l.UserID())
	if err != nil {
		return nil, errors.New("KnowledgeBaseLogic.List.ListByUser", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

// Search matches query against the names of the user's knowledge bases, ignoring case.
func (l *KnowledgeBaseLogic) Search(query string) ([]*types.KnowledgeBase, error) {
	list, err := l.core.Store().KnowledgeBaseStore().Search(l.ctx, "name", query, map[string]any{
		types.COLUMN_USER_ID: l.UserID(),
	})
	if err != nil {
		return nil, errors.New("KnowledgeBaseLogic.Search", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

func (l *KnowledgeBaseLogic) Get(id string) (*types.KnowledgeBase, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()
	return ownedKnowledgeBase(l.ctx, l.core, session, id, l.UserID())
}

func (l *KnowledgeBaseLogic) Update(id string, req types.KnowledgeBaseUpdate) (*types.KnowledgeBase, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	existing, err := ownedKnowledgeBase(l.ctx, l.core, session, id, l.UserID())
	if err != nil {
		return nil, err
	}

	v := validator.NewKnowledgeBaseValidator(session, l.core.Store().KnowledgeBaseStore(), req, l.UserID())
	v.TargetID = id
	if err = runValidation(l.ctx, l.core, "knowledge_base", v, validator.OpUpdate, "KnowledgeBaseLogic.Update"); err != nil {
		return nil, err
	}

	kb, err := v.Update(l.ctx, existing, true)
	if err != nil {
		return nil, errors.New("KnowledgeBaseLogic.Update.Update", i18n.ERROR_INTERNAL, err)
	}
	if kb == nil {
		return nil, errors.New("KnowledgeBaseLogic.Update", i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
	}
	return kb, nil
}

// Delete soft-deletes the knowledge base with its documents and their chunks, then drops the stored files.
func (l *KnowledgeBaseLogic) Delete(id string) error {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	if _, err := ownedKnowledgeBase(l.ctx, l.core, session, id, l.UserID()); err != nil {
		return err
	}

	docs, err := l.core.Store().DocumentStore().ListByKnowledgeBase(l.ctx, id)
	if err != nil {
		return errors.New("KnowledgeBaseLogic.Delete.ListByKnowledgeBase", i18n.ERROR_INTERNAL, err)
	}
	docIDs := lo.Map(docs, func(d *types.Document, _ int) string { return d.ID })

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if len(docIDs) > 0 {
			if _, err := l.core.Store().ChunkStore().MarkDeletedMany(ctx, map[string]any{"document_id": docIDs}); err != nil {
				return err
			}
		}
		if _, err := l.core.Store().DocumentStore().MarkDeletedMany(ctx, map[string]any{"knowledge_base_id": id}); err != nil {
			return err
		}
		_, err := l.core.Store().KnowledgeBaseStore().MarkDeletedByID(ctx, id)
		return err
	})
	if err != nil {
		return errors.New("KnowledgeBaseLogic.Delete.Transaction", i18n.ERROR_INTERNAL, err)
	}

	for _, doc := range docs {
		removeDocumentFile(l.ctx, l.core, doc)
	}
	return nil
}

// Action runs a maintenance action on one knowledge base.
func (l *KnowledgeBaseLogic) Action(id, action string) (*types.KnowledgeBase, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	if _, err := ownedKnowledgeBase(l.ctx, l.core, session, id, l.UserID()); err != nil {
		return nil, err
	}

	switch action {
	case types.KB_ACTION_SYNC:
	default:
		return nil, errors.New("KnowledgeBaseLogic.Action", i18n.ERROR_UNSUPPORTED_ACTION, errors.ErrInvalidInput)
	}

	total, err := l.core.Store().DocumentStore().Count(l.ctx, map[string]any{"knowledge_base_id": id})
	if err != nil {
		return nil, errors.New("KnowledgeBaseLogic.Action.Count", i18n.ERROR_INTERNAL, err)
	}
	kb, err := l.core.Store().KnowledgeBaseStore().UpdateByID(l.ctx, id, map[string]any{"document_count": total})
	if err != nil {
		return nil, errors.New("KnowledgeBaseLogic.Action.UpdateByID", i18n.ERROR_INTERNAL, err)
	}
	if kb == nil {
		return nil, errors.New("KnowledgeBaseLogic.Action", i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
	}
	slog.Debug("knowledge base synced", slog.String("kb_id", id), slog.Int64("document_count", total))
	return kb, nil
}

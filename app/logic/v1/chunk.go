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

// ChunkLogic edits the chunks of one document. Chunks carry no owner, they are reached through
// their document and knowledge base.
type ChunkLogic struct {
	UserInfo
	ctx  context.Context
	core *core.Core
}

func NewChunkLogic(ctx context.Context, core *core.Core) *ChunkLogic {
	return &ChunkLogic{
		UserInfo: SetupUserInfo(ctx),
		ctx:      ctx,
		core:     core,
	}
}

func (l *ChunkLogic) owned(session *sqlstore.Session, kbID, docID, chunkID string) (*types.Chunk, error) {
	if _, err := ownedDocument(l.ctx, l.core, session, kbID, docID, l.UserID()); err != nil {
		return nil, err
	}
	chunk, err := l.core.Store().ChunkStore().GetByID(l.ctx, chunkID)
	if err != nil {
		return nil, errors.New("ChunkLogic.owned.GetByID", i18n.ERROR_INTERNAL, err)
	}
	if chunk == nil || chunk.DocumentID != docID {
		return nil, errors.New("ChunkLogic.owned", i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
	}
	return chunk, nil
}

func (l *ChunkLogic) Create(kbID, docID string, req types.ChunkCreate) (*types.Chunk, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	if _, err := ownedDocument(l.ctx, l.core, session, kbID, docID, l.UserID()); err != nil {
		return nil, err
	}

	v := validator.NewChunkValidator(session, l.core.Store().ChunkStore(), req, l.UserID(), docID)
	if err := runValidation(l.ctx, l.core, "chunk", v, validator.OpSave, "ChunkLogic.Create"); err != nil {
		return nil, err
	}

	var chunk *types.Chunk
	err := l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		var err error
		if chunk, err = v.Save(ctx); err != nil {
			return err
		}
		return l.core.Store().DocumentStore().IncrChunkCount(ctx, docID, 1)
	})
	if err != nil {
		return nil, errors.New("ChunkLogic.Create.Transaction", i18n.ERROR_INTERNAL, err)
	}
	return chunk, nil
}

func (l *ChunkLogic) List(kbID, docID string) ([]*types.Chunk, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	if _, err := ownedDocument(l.ctx, l.core, session, kbID, docID, l.UserID()); err != nil {
		return nil, err
	}
	list, err := l.core.Store().ChunkStore().ListByDocument(l.ctx, docID)
	if err != nil {
		return nil, errors.New("ChunkLogic.List.ListByDocument", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

func (l *ChunkLogic) Search(kbID, docID, query string) ([]*types.Chunk, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	if _, err := ownedDocument(l.ctx, l.core, session, kbID, docID, l.UserID()); err != nil {
		return nil, err
	}
	list, err := l.core.Store().ChunkStore().Search(l.ctx, "content", query, map[string]any{"document_id": docID})
	if err != nil {
		return nil, errors.New("ChunkLogic.Search", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

func (l *ChunkLogic) Get(kbID, docID, chunkID string) (*types.Chunk, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()
	return l.owned(session, kbID, docID, chunkID)
}

func (l *ChunkLogic) Update(kbID, docID, chunkID string, req types.ChunkUpdate) (*types.Chunk, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	existing, err := l.owned(session, kbID, docID, chunkID)
	if err != nil {
		return nil, err
	}

	v := validator.NewChunkValidator(session, l.core.Store().ChunkStore(), req, l.UserID(), docID)
	if err = runValidation(l.ctx, l.core, "chunk", v, validator.OpUpdate, "ChunkLogic.Update"); err != nil {
		return nil, err
	}

	chunk, err := v.Update(l.ctx, existing, true)
	if err != nil {
		return nil, errors.New("ChunkLogic.Update.Update", i18n.ERROR_INTERNAL, err)
	}
	if chunk == nil {
		return nil, errors.New("ChunkLogic.Update", i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
	}
	return chunk, nil
}

// Action toggles whether the chunk takes part in retrieval.
func (l *ChunkLogic) Action(kbID, docID, chunkID, action string) (*types.Chunk, error) {
	var status bool
	switch action {
	case types.CHUNK_ACTION_ENABLE:
		status = true
	case types.CHUNK_ACTION_DISABLE:
	default:
		return nil, errors.New("ChunkLogic.Action", i18n.ERROR_UNSUPPORTED_ACTION, errors.ErrInvalidInput)
	}

	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	if _, err := l.owned(session, kbID, docID, chunkID); err != nil {
		return nil, err
	}
	chunk, err := l.core.Store().ChunkStore().UpdateByID(l.ctx, chunkID, map[string]any{"status": status})
	if err != nil {
		return nil, errors.New("ChunkLogic.Action.UpdateByID", i18n.ERROR_INTERNAL, err)
	}
	if chunk == nil {
		return nil, errors.New("ChunkLogic.Action", i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
	}
	return chunk, nil
}

func (l *ChunkLogic) Delete(kbID, docID, chunkID string) error {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	if _, err := l.owned(session, kbID, docID, chunkID); err != nil {
		return err
	}

	err := l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		deleted, err := l.core.Store().ChunkStore().MarkDeletedByID(ctx, chunkID)
		if err != nil || !deleted {
			return err
		}
		return l.core.Store().DocumentStore().IncrChunkCount(ctx, docID, -1)
	})
	if err != nil {
		return errors.New("ChunkLogic.Delete.Transaction", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

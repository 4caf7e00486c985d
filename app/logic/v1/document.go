package v1

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/knowhive/knowhive/app/core"
	"github.com/knowhive/knowhive/app/validator"
	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/i18n"
	objectstorage "github.com/knowhive/knowhive/pkg/object-storage"
	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

type DocumentLogic struct {
	UserInfo
	ctx  context.Context
	core *core.Core
}

func NewDocumentLogic(ctx context.Context, core *core.Core) *DocumentLogic {
	return &DocumentLogic{
		UserInfo: SetupUserInfo(ctx),
		ctx:      ctx,
		core:     core,
	}
}

// ownedDocument resolves a document through its knowledge base, both must belong to userID.
func ownedDocument(ctx context.Context, core *core.Core, session *sqlstore.Session, kbID, docID, userID string) (*types.Document, error) {
	if _, err := ownedKnowledgeBase(ctx, core, session, kbID, userID); err != nil {
		return nil, err
	}
	doc, err := ownedEntity[types.Document](ctx, session, core.Store().DocumentStore(), types.TABLE_DOCUMENT, types.COLUMN_USER_ID, docID, userID, "ownedDocument")
	if err != nil {
		return nil, err
	}
	if doc.KnowledgeBaseID != kbID {
		return nil, errors.New("ownedDocument", i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
	}
	return doc, nil
}

func removeDocumentFile(ctx context.Context, core *core.Core, doc *types.Document) {
	if doc.Location == "" {
		return
	}
	if err := core.FileStorage().Delete(ctx, doc.Location); err != nil {
		slog.Error("failed to remove document file", slog.String("document_id", doc.ID),
			slog.String("location", doc.Location), slog.Any("error", err))
	}
}

type DocumentUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
	// Parser falls back to the parser of the knowledge base when empty.
	Parser string
}

// Upload stores the file and records a pending document for it.
func (l *DocumentLogic) Upload(kbID string, upload DocumentUpload) (*types.Document, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	kb, err := ownedKnowledgeBase(l.ctx, l.core, session, kbID, l.UserID())
	if err != nil {
		return nil, err
	}

	req := types.DocumentCreate{
		KnowledgeBaseID: kbID,
		Name:            upload.Name,
		Location:        objectstorage.DocumentKey(l.UserID(), kbID, uuid.NewString(), upload.Name),
		LocationConfig: map[string]any{
			"content_type": upload.ContentType,
			"size":         upload.Size,
			"storage":      l.core.Cfg().ObjectStorage.Driver,
		},
		Parser:       upload.Parser,
		ParserConfig: kb.ParserConfig,
	}
	if req.Parser == "" {
		req.Parser = kb.Parser
	}

	v := validator.NewDocumentValidator(session, l.core.Store().DocumentStore(), req, l.UserID())
	if err = runValidation(l.ctx, l.core, "document", v, validator.OpSave, "DocumentLogic.Upload"); err != nil {
		return nil, err
	}

	if err = l.core.FileStorage().Put(l.ctx, req.Location, upload.Body, upload.ContentType); err != nil {
		return nil, errors.New("DocumentLogic.Upload.FileStorage.Put", i18n.ERROR_FILE_READ_FAIL, err)
	}

	var doc *types.Document
	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		var err error
		if doc, err = v.Save(ctx); err != nil {
			return err
		}
		return l.core.Store().KnowledgeBaseStore().IncrDocumentCount(ctx, kbID, 1)
	})
	if err != nil {
		if derr := l.core.FileStorage().Delete(l.ctx, req.Location); derr != nil {
			slog.Error("failed to remove orphaned upload", slog.String("location", req.Location), slog.Any("error", derr))
		}
		return nil, errors.New("DocumentLogic.Upload.Transaction", i18n.ERROR_INTERNAL, err)
	}
	return doc, nil
}

func (l *DocumentLogic) List(kbID string) ([]*types.Document, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	if _, err := ownedKnowledgeBase(l.ctx, l.core, session, kbID, l.UserID()); err != nil {
		return nil, err
	}
	list, err := l.core.Store().DocumentStore().ListByKnowledgeBase(l.ctx, kbID)
	if err != nil {
		return nil, errors.New("DocumentLogic.List.ListByKnowledgeBase", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

func (l *DocumentLogic) Get(kbID, docID string) (*types.Document, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()
	return ownedDocument(l.ctx, l.core, session, kbID, docID, l.UserID())
}

// File opens the stored file of the document. The caller closes the body.
func (l *DocumentLogic) File(kbID, docID string) (*types.Document, *objectstorage.Object, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	doc, err := ownedDocument(l.ctx, l.core, session, kbID, docID, l.UserID())
	if err != nil {
		return nil, nil, err
	}
	obj, err := l.core.FileStorage().Get(l.ctx, doc.Location)
	if err != nil {
		if errors.Is(err, objectstorage.ErrObjectNotFound) || errors.Is(err, objectstorage.ErrInvalidKey) {
			return nil, nil, errors.New("DocumentLogic.File", i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
		}
		return nil, nil, errors.New("DocumentLogic.File.FileStorage.Get", i18n.ERROR_INTERNAL, err)
	}
	return doc, obj, nil
}

// Update patches the sent fields. Changing the parser, or asking for it, queues the document
// for reprocessing when its status allows.
func (l *DocumentLogic) Update(kbID, docID string, req types.DocumentUpdate) (*types.Document, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	existing, err := ownedDocument(l.ctx, l.core, session, kbID, docID, l.UserID())
	if err != nil {
		return nil, err
	}

	v := validator.NewDocumentValidator(session, l.core.Store().DocumentStore(), req, l.UserID())
	if err = runValidation(l.ctx, l.core, "document", v, validator.OpUpdate, "DocumentLogic.Update"); err != nil {
		return nil, err
	}

	doc, err := v.Update(l.ctx, existing, true)
	if err != nil {
		return nil, errors.New("DocumentLogic.Update.Update", i18n.ERROR_INTERNAL, err)
	}
	if doc == nil {
		return nil, errors.New("DocumentLogic.Update", i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
	}

	if (req.ParserChanged() || (req.RedoChunks != nil && *req.RedoChunks)) && doc.Status.CanMoveTo(types.DOCUMENT_STATUS_PENDING) {
		return l.moveTo(doc, types.DOCUMENT_STATUS_PENDING)
	}
	return doc, nil
}

func actionTarget(action string) (types.DocumentStatus, bool) {
	switch action {
	case types.DOCUMENT_ACTION_REPROCESS:
		return types.DOCUMENT_STATUS_PENDING, true
	case types.DOCUMENT_ACTION_READY:
		return types.DOCUMENT_STATUS_READY, true
	case types.DOCUMENT_ACTION_FAIL:
		return types.DOCUMENT_STATUS_FAILED, true
	}
	return "", false
}

// Action moves the document along its status machine.
func (l *DocumentLogic) Action(kbID, docID, action string) (*types.Document, error) {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	target, ok := actionTarget(action)
	if !ok {
		return nil, errors.New("DocumentLogic.Action", i18n.ERROR_UNSUPPORTED_ACTION, errors.ErrInvalidInput)
	}

	doc, err := ownedDocument(l.ctx, l.core, session, kbID, docID, l.UserID())
	if err != nil {
		return nil, err
	}
	return l.moveTo(doc, target)
}

func transitionError(trace string, from, to types.DocumentStatus) error {
	return errors.New(trace, i18n.ERROR_STATUS_TRANSITION, errors.ErrInvalidInput).
		WithData(map[string]any{"from": string(from), "to": string(to)})
}

// moveTo applies one status transition. Going back to pending drops the chunks of the previous run.
func (l *DocumentLogic) moveTo(doc *types.Document, target types.DocumentStatus) (*types.Document, error) {
	if !doc.Status.CanMoveTo(target) {
		return nil, transitionError("DocumentLogic.moveTo", doc.Status, target)
	}

	progress := doc.Progress
	switch target {
	case types.DOCUMENT_STATUS_PENDING:
		progress = 0
	case types.DOCUMENT_STATUS_READY:
		progress = 100
	}

	err := l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		moved, err := l.core.Store().DocumentStore().SetStatus(ctx, doc.ID, doc.Status, target, progress)
		if err != nil {
			return err
		}
		if !moved {
			// another request changed the status first
			return transitionError("DocumentLogic.moveTo", doc.Status, target)
		}
		if target != types.DOCUMENT_STATUS_PENDING {
			return nil
		}
		if _, err = l.core.Store().ChunkStore().MarkDeletedMany(ctx, map[string]any{"document_id": doc.ID}); err != nil {
			return err
		}
		_, err = l.core.Store().DocumentStore().UpdateByID(ctx, doc.ID, map[string]any{"chunk_count": 0})
		return err
	})
	if err != nil {
		var ce *errors.CustomizedError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, errors.New("DocumentLogic.moveTo.Transaction", i18n.ERROR_INTERNAL, err)
	}

	updated, err := l.core.Store().DocumentStore().GetByID(l.ctx, doc.ID)
	if err != nil {
		return nil, errors.New("DocumentLogic.moveTo.GetByID", i18n.ERROR_INTERNAL, err)
	}
	if updated == nil {
		return nil, errors.New("DocumentLogic.moveTo", i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
	}
	return updated, nil
}

// Delete soft-deletes the document and its chunks, then removes its file.
func (l *DocumentLogic) Delete(kbID, docID string) error {
	session, release := sessionFrom(l.ctx, l.core)
	defer release()

	doc, err := ownedDocument(l.ctx, l.core, session, kbID, docID, l.UserID())
	if err != nil {
		return err
	}

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if _, err := l.core.Store().ChunkStore().MarkDeletedMany(ctx, map[string]any{"document_id": docID}); err != nil {
			return err
		}
		deleted, err := l.core.Store().DocumentStore().MarkDeletedByID(ctx, docID)
		if err != nil || !deleted {
			return err
		}
		return l.core.Store().KnowledgeBaseStore().IncrDocumentCount(ctx, kbID, -1)
	})
	if err != nil {
		return errors.New("DocumentLogic.Delete.Transaction", i18n.ERROR_INTERNAL, err)
	}

	removeDocumentFile(l.ctx, l.core, doc)
	return nil
}

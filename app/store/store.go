package store

import (
	"context"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

// Repository is the persistence contract shared by every entity kind.
// Default reads skip soft-deleted rows.
type Repository[T any] interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, entity *T) error
	// Insert writes the given column values and returns the stored row.
	Insert(ctx context.Context, data map[string]any) (*T, error)
	GetByID(ctx context.Context, id string) (*T, error)
	GetByField(ctx context.Context, field string, value any) (*T, error)
	GetAll(ctx context.Context, filters map[string]any) ([]*T, error)
	Search(ctx context.Context, column, term string, filters map[string]any) ([]*T, error)
	Count(ctx context.Context, filters map[string]any) (int64, error)
	UpdateByID(ctx context.Context, id string, patch map[string]any) (*T, error)
	UpdateMany(ctx context.Context, filters, patch map[string]any) (int64, error)
	MarkDeletedByID(ctx context.Context, id string) (bool, error)
	MarkDeletedMany(ctx context.Context, filters map[string]any) (int64, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	DeleteMany(ctx context.Context, filters map[string]any) (int64, error)
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}

type UserStore interface {
	Repository[types.User]
	GetByEmail(ctx context.Context, email string) (*types.User, error)
}

type LLMStore interface {
	Repository[types.LLM]
	ListByUser(ctx context.Context, userID string) ([]*types.LLM, error)
}

type KnowledgeBaseStore interface {
	Repository[types.KnowledgeBase]
	ListByUser(ctx context.Context, userID string) ([]*types.KnowledgeBase, error)
	IncrDocumentCount(ctx context.Context, id string, delta int64) error
	// ReconcileDocumentCount recomputes document_count from live documents, returning the rows changed.
	ReconcileDocumentCount(ctx context.Context) (int64, error)
}

type DocumentStore interface {
	Repository[types.Document]
	ListByKnowledgeBase(ctx context.Context, kbID string) ([]*types.Document, error)
	// SetStatus moves a live document from one status to another, false when it was not in from.
	SetStatus(ctx context.Context, id string, from, to types.DocumentStatus, progress int) (bool, error)
	IncrChunkCount(ctx context.Context, id string, delta int64) error
}

type ChunkStore interface {
	Repository[types.Chunk]
	ListByDocument(ctx context.Context, documentID string) ([]*types.Chunk, error)
	// Nearest returns the active chunks of the documents closest to vector by cosine distance.
	Nearest(ctx context.Context, documentIDs []string, vector pgvector.Vector, limit uint64) ([]*types.Chunk, error)
}

type AssistantStore interface {
	Repository[types.Assistant]
	ListByUser(ctx context.Context, userID string) ([]*types.Assistant, error)
}

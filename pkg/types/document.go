package types

type DocumentStatus string

const (
	DOCUMENT_STATUS_PENDING    DocumentStatus = "pending"
	DOCUMENT_STATUS_PROCESSING DocumentStatus = "processing"
	DOCUMENT_STATUS_READY      DocumentStatus = "ready"
	DOCUMENT_STATUS_FAILED     DocumentStatus = "failed"
)

var documentTransitions = map[DocumentStatus][]DocumentStatus{
	DOCUMENT_STATUS_PENDING:    {DOCUMENT_STATUS_PROCESSING, DOCUMENT_STATUS_FAILED},
	DOCUMENT_STATUS_PROCESSING: {DOCUMENT_STATUS_READY, DOCUMENT_STATUS_FAILED},
	DOCUMENT_STATUS_READY:      {DOCUMENT_STATUS_PENDING},
	DOCUMENT_STATUS_FAILED:     {DOCUMENT_STATUS_PENDING},
}

// CanMoveTo reports whether a document in status s may be moved to next.
// Finished documents can only go back to pending, which queues a reprocess.
func (s DocumentStatus) CanMoveTo(next DocumentStatus) bool {
	for _, v := range documentTransitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

func (s DocumentStatus) Valid() bool {
	_, ok := documentTransitions[s]
	return ok
}

type Document struct {
	Entity
	UserID          string         `json:"user_id" db:"user_id"`
	KnowledgeBaseID string         `json:"knowledge_base_id" db:"knowledge_base_id"`
	Name            string         `json:"name" db:"name"`
	Status          DocumentStatus `json:"status" db:"status"`
	Progress        int            `json:"progress" db:"progress"` // 0..100
	Location        string         `json:"location" db:"location"` // object key in the storage backend
	LocationConfig  JSONMap        `json:"location_config" db:"location_config"`
	ChunkCount      int64          `json:"chunk_count" db:"chunk_count"`
	Parser          string         `json:"parser" db:"parser"`
	ParserConfig    JSONMap        `json:"parser_config" db:"parser_config"`
}

func (d *Document) TableName() TableName {
	return TABLE_DOCUMENT
}

func (d *Document) Columns() []string {
	return append(BaseColumns(), "user_id", "knowledge_base_id", "name", "status", "progress",
		"location", "location_config", "chunk_count", "parser", "parser_config")
}

func (d *Document) Values() []any {
	return append(d.baseValues(), d.UserID, d.KnowledgeBaseID, d.Name, d.Status, d.Progress,
		d.Location, d.LocationConfig, d.ChunkCount, d.Parser, d.ParserConfig)
}

func (d *Document) OwnerID() string {
	return d.UserID
}

// DocumentCreate is assembled by the upload handler from the multipart form and the stored object.
type DocumentCreate struct {
	KnowledgeBaseID string         `json:"knowledge_base_id" binding:"required"`
	Name            string         `json:"name" binding:"required,min=1,max=255"`
	Location        string         `json:"location"`
	LocationConfig  map[string]any `json:"location_config"`
	Parser          string         `json:"parser"`
	ParserConfig    map[string]any `json:"parser_config"`
}

func (p DocumentCreate) Serialize() map[string]any {
	data := map[string]any{
		"knowledge_base_id": p.KnowledgeBaseID,
		"name":              p.Name,
		"status":            DOCUMENT_STATUS_PENDING,
		"progress":          0,
		"location":          p.Location,
		"location_config":   JSONMap(p.LocationConfig),
		"parser_config":     JSONMap(p.ParserConfig),
	}
	if p.LocationConfig == nil {
		data["location_config"] = JSONMap{}
	}
	if p.ParserConfig == nil {
		data["parser_config"] = JSONMap{}
	}
	if p.Parser != "" {
		data["parser"] = p.Parser
	}
	return data
}

type DocumentUpdate struct {
	Name           *string        `json:"name" binding:"omitempty,min=1,max=255"`
	LocationConfig map[string]any `json:"location_config"`
	Parser         *string        `json:"parser" binding:"omitempty,max=64"`
	ParserConfig   map[string]any `json:"parser_config"`
	RedoChunks     *bool          `json:"redo_chunks"`
}

// Serialize leaves out redo_chunks, it is an instruction rather than a column.
func (p DocumentUpdate) Serialize() map[string]any {
	data := map[string]any{
		"name":            ptrValue(p.Name),
		"parser":          ptrValue(p.Parser),
		"location_config": nil,
		"parser_config":   nil,
	}
	if p.LocationConfig != nil {
		data["location_config"] = JSONMap(p.LocationConfig)
	}
	if p.ParserConfig != nil {
		data["parser_config"] = JSONMap(p.ParserConfig)
	}
	return data
}

// ParserChanged reports whether the update touches the parsing setup.
func (p DocumentUpdate) ParserChanged() bool {
	return p.Parser != nil || p.ParserConfig != nil
}

type DocumentOut struct {
	ID              string         `json:"id"`
	KnowledgeBaseID string         `json:"knowledge_base_id"`
	Name            string         `json:"name"`
	Status          DocumentStatus `json:"status"`
	Progress        int            `json:"progress"`
	ChunkCount      int64          `json:"chunk_count"`
	Parser          string         `json:"parser"`
	CreatedAt       int64          `json:"created_at"`
	UpdatedAt       int64          `json:"updated_at"`
}

func NewDocumentOut(d *Document) DocumentOut {
	return DocumentOut{
		ID:              d.ID,
		KnowledgeBaseID: d.KnowledgeBaseID,
		Name:            d.Name,
		Status:          d.Status,
		Progress:        d.Progress,
		ChunkCount:      d.ChunkCount,
		Parser:          d.Parser,
		CreatedAt:       d.CreatedAt.Unix(),
		UpdatedAt:       d.UpdatedAt.Unix(),
	}
}

const (
	DOCUMENT_ACTION_REPROCESS = "reprocess"
	DOCUMENT_ACTION_READY     = "ready"
	DOCUMENT_ACTION_FAIL      = "fail"
)

package types

import "github.com/pgvector/pgvector-go"

type Chunk struct {
	Entity
	DocumentID string           `json:"document_id" db:"document_id"`
	Content    string           `json:"content" db:"content"`
	Questions  StringList       `json:"questions" db:"questions"`
	Keywords   StringList       `json:"keywords" db:"keywords"`
	Vector     *pgvector.Vector `json:"-" db:"vector"` // optional embedding
	Metadata   JSONMap          `json:"metadata" db:"metadata"`
	Status     bool             `json:"status" db:"status"` // false keeps the chunk out of retrieval
}

func (c *Chunk) TableName() TableName {
	return TABLE_CHUNK
}

func (c *Chunk) Columns() []string {
	return append(BaseColumns(), "document_id", "content", "questions", "keywords", "vector", "metadata", "status")
}

func (c *Chunk) Values() []any {
	return append(c.baseValues(), c.DocumentID, c.Content, c.Questions, c.Keywords, c.Vector, c.Metadata, c.Status)
}

type ChunkCreate struct {
	Content   string         `json:"content" binding:"required"`
	Questions []string       `json:"questions"`
	Keywords  []string       `json:"keywords"`
	Vector    []float32      `json:"vector"`
	Metadata  map[string]any `json:"metadata"`
	Status    *bool          `json:"status"`
}

func (p ChunkCreate) Serialize() map[string]any {
	data := map[string]any{
		"content":   p.Content,
		"questions": StringList(p.Questions),
		"keywords":  StringList(p.Keywords),
		"metadata":  JSONMap(p.Metadata),
		"status":    p.Status == nil || *p.Status,
	}
	if p.Metadata == nil {
		data["metadata"] = JSONMap{}
	}
	if len(p.Vector) > 0 {
		v := pgvector.NewVector(p.Vector)
		data["vector"] = &v
	}
	return data
}

type ChunkUpdate struct {
	Content   *string        `json:"content" binding:"omitempty,min=1"`
	Questions []string       `json:"questions"`
	Keywords  []string       `json:"keywords"`
	Vector    []float32      `json:"vector"`
	Metadata  map[string]any `json:"metadata"`
	Status    *bool          `json:"status"`
}

func (p ChunkUpdate) Serialize() map[string]any {
	data := map[string]any{
		"content":   ptrValue(p.Content),
		"status":    ptrValue(p.Status),
		"questions": nil,
		"keywords":  nil,
		"metadata":  nil,
		"vector":    nil,
	}
	if p.Questions != nil {
		data["questions"] = StringList(p.Questions)
	}
	if p.Keywords != nil {
		data["keywords"] = StringList(p.Keywords)
	}
	if p.Metadata != nil {
		data["metadata"] = JSONMap(p.Metadata)
	}
	if len(p.Vector) > 0 {
		v := pgvector.NewVector(p.Vector)
		data["vector"] = &v
	}
	return data
}

type ChunkOut struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	Content    string     `json:"content"`
	Questions  StringList `json:"questions"`
	Keywords   StringList `json:"keywords"`
	Metadata   JSONMap    `json:"metadata"`
	Status     bool       `json:"status"`
	HasVector  bool       `json:"has_vector"`
	CreatedAt  int64      `json:"created_at"`
	UpdatedAt  int64      `json:"updated_at"`
}

func NewChunkOut(c *Chunk) ChunkOut {
	return ChunkOut{
		ID:         c.ID,
		DocumentID: c.DocumentID,
		Content:    c.Content,
		Questions:  c.Questions,
		Keywords:   c.Keywords,
		Metadata:   c.Metadata,
		Status:     c.Status,
		HasVector:  c.Vector != nil,
		CreatedAt:  c.CreatedAt.Unix(),
		UpdatedAt:  c.UpdatedAt.Unix(),
	}
}

const (
	CHUNK_ACTION_ENABLE  = "enable"
	CHUNK_ACTION_DISABLE = "disable"
)

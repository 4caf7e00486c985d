package types

import (
	"slices"

	"github.com/samber/lo"
)

const DEFAULT_PARSER = "naive"

var KnownParsers = []string{DEFAULT_PARSER, "qa", "table", "paper", "book", "laws", "presentation", "picture", "one"}

func IsKnownParser(name string) bool {
	return slices.Contains(KnownParsers, name)
}

type KnowledgeBase struct {
	Entity
	UserID           string  `json:"user_id" db:"user_id"`
	LLMModelID       string  `json:"llm_model_id" db:"llm_model_id"`             // chat model, references LLM
	EmbeddingModelID string  `json:"embedding_model_id" db:"embedding_model_id"` // references LLM
	Name             string  `json:"name" db:"name"`                             // unique among the owner's live knowledge bases
	Parser           string  `json:"parser" db:"parser"`
	ParserConfig     JSONMap `json:"parser_config" db:"parser_config"`
	DocumentCount    int64   `json:"document_count" db:"document_count"` // denormalized, reconciled by the process job
	IsExternalBucket bool    `json:"is_external_bucket" db:"is_external_bucket"`
	BucketConfig     JSONMap `json:"bucket_config,omitempty" db:"bucket_config"`
}

func (k *KnowledgeBase) TableName() TableName {
	return TABLE_KNOWLEDGE_BASE
}

func (k *KnowledgeBase) Columns() []string {
	return append(BaseColumns(), "user_id", "llm_model_id", "embedding_model_id", "name", "parser",
		"parser_config", "document_count", "is_external_bucket", "bucket_config")
}

func (k *KnowledgeBase) Values() []any {
	return append(k.baseValues(), k.UserID, k.LLMModelID, k.EmbeddingModelID, k.Name, k.Parser,
		k.ParserConfig, k.DocumentCount, k.IsExternalBucket, k.BucketConfig)
}

func (k *KnowledgeBase) OwnerID() string {
	return k.UserID
}

type KnowledgeBaseCreate struct {
	LLMModelID       string         `json:"llm_model_id" binding:"required"`
	EmbeddingModelID string         `json:"embedding_model_id" binding:"required"`
	Name             string         `json:"name" binding:"required,min=1,max=255"`
	Parser           string         `json:"parser" binding:"omitempty,max=64"`
	ParserConfig     map[string]any `json:"parser_config"`
	IsExternalBucket bool           `json:"is_external_bucket"`
	BucketConfig     map[string]any `json:"bucket_config"`
}

func (p KnowledgeBaseCreate) Serialize() map[string]any {
	data := map[string]any{
		"llm_model_id":       p.LLMModelID,
		"embedding_model_id": p.EmbeddingModelID,
		"name":               p.Name,
		"parser":             lo.Ternary(p.Parser == "", DEFAULT_PARSER, p.Parser),
		"parser_config":      JSONMap(lo.Ternary(p.ParserConfig == nil, map[string]any{}, p.ParserConfig)),
		"is_external_bucket": p.IsExternalBucket,
	}
	if p.BucketConfig != nil {
		data["bucket_config"] = JSONMap(p.BucketConfig)
	}
	return data
}

type KnowledgeBaseUpdate struct {
	LLMModelID       *string        `json:"llm_model_id"`
	EmbeddingModelID *string        `json:"embedding_model_id"`
	Name             *string        `json:"name" binding:"omitempty,min=1,max=255"`
	Parser           *string        `json:"parser" binding:"omitempty,max=64"`
	ParserConfig     map[string]any `json:"parser_config"`
	IsExternalBucket *bool          `json:"is_external_bucket"`
	BucketConfig     map[string]any `json:"bucket_config"`
}

func (p KnowledgeBaseUpdate) Serialize() map[string]any {
	data := map[string]any{
		"llm_model_id":       ptrValue(p.LLMModelID),
		"embedding_model_id": ptrValue(p.EmbeddingModelID),
		"name":               ptrValue(p.Name),
		"parser":             ptrValue(p.Parser),
		"is_external_bucket": ptrValue(p.IsExternalBucket),
		"parser_config":      nil,
		"bucket_config":      nil,
	}
	if p.ParserConfig != nil {
		data["parser_config"] = JSONMap(p.ParserConfig)
	}
	if p.BucketConfig != nil {
		data["bucket_config"] = JSONMap(p.BucketConfig)
	}
	return data
}

type KnowledgeBaseOut struct {
	ID               string  `json:"id"`
	LLMModelID       string  `json:"llm_model_id"`
	EmbeddingModelID string  `json:"embedding_model_id"`
	Name             string  `json:"name"`
	Parser           string  `json:"parser"`
	ParserConfig     JSONMap `json:"parser_config"`
	DocumentCount    int64   `json:"document_count"`
	IsExternalBucket bool    `json:"is_external_bucket"`
	CreatedAt        int64   `json:"created_at"`
	UpdatedAt        int64   `json:"updated_at"`
}

func NewKnowledgeBaseOut(k *KnowledgeBase) KnowledgeBaseOut {
	return KnowledgeBaseOut{
		ID:               k.ID,
		LLMModelID:       k.LLMModelID,
		EmbeddingModelID: k.EmbeddingModelID,
		Name:             k.Name,
		Parser:           k.Parser,
		ParserConfig:     k.ParserConfig,
		DocumentCount:    k.DocumentCount,
		IsExternalBucket: k.IsExternalBucket,
		CreatedAt:        k.CreatedAt.Unix(),
		UpdatedAt:        k.UpdatedAt.Unix(),
	}
}

const (
	KB_ACTION_SYNC = "sync"
)

package types

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/samber/lo"
)

type LLMSettings struct {
	Temperature      float64  `json:"temperature"`
	TopP             float64  `json:"top_p"`
	MaxTokens        int      `json:"max_tokens"`
	FrequencyPenalty float64  `json:"frequency_penalty"`
	PresencePenalty  float64  `json:"presence_penalty"`
	Stop             []string `json:"stop"`
	Tools            []any    `json:"tools"`
}

func DefaultLLMSettings() LLMSettings {
	return LLMSettings{
		Temperature: 0.7,
		TopP:        1.0,
		MaxTokens:   150,
	}
}

type RetrievalSettings struct {
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	SimilarityIndex     string  `json:"similarity_index"` // cosine, l2, inner_product
	RerankModelID       *string `json:"rerank_model_id"`
}

func DefaultRetrievalSettings() RetrievalSettings {
	return RetrievalSettings{
		TopK:                5,
		SimilarityThreshold: 0.7,
		SimilarityIndex:     "cosine",
	}
}

type PromptSettings struct {
	SystemPrompt string `json:"system_prompt"`
	Variables    []any  `json:"variables"`
}

func DefaultPromptSettings() PromptSettings {
	return PromptSettings{}
}

type AssistantSettings struct {
	KeywordGeneration bool   `json:"keyword_generation"`
	EmptyResponse     string `json:"empty_response"`
	GreetingMessage   string `json:"greeting_message"`
}

func DefaultAssistantSettings() AssistantSettings {
	return AssistantSettings{}
}

type MemorySettings struct {
	EnableUserMemory         bool    `json:"enable_user_memory"`
	EnableConversationMemory bool    `json:"enable_conversation_memory"`
	EmbeddingModelID         *string `json:"embedding_model_id"`
	UserTopK                 int     `json:"user_top_k"`
	ConversationTopK         int     `json:"conversation_top_k"`
}

func DefaultMemorySettings() MemorySettings {
	return MemorySettings{
		UserTopK:         5,
		ConversationTopK: 5,
	}
}

// Keys missing from the document keep their defaults.

func (s *LLMSettings) UnmarshalJSON(b []byte) error {
	type alias LLMSettings
	v := alias(DefaultLLMSettings())
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = LLMSettings(v)
	return nil
}

func (s *RetrievalSettings) UnmarshalJSON(b []byte) error {
	type alias RetrievalSettings
	v := alias(DefaultRetrievalSettings())
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = RetrievalSettings(v)
	return nil
}

func (s *PromptSettings) UnmarshalJSON(b []byte) error {
	type alias PromptSettings
	v := alias(DefaultPromptSettings())
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = PromptSettings(v)
	return nil
}

func (s *AssistantSettings) UnmarshalJSON(b []byte) error {
	type alias AssistantSettings
	v := alias(DefaultAssistantSettings())
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = AssistantSettings(v)
	return nil
}

func (s *MemorySettings) UnmarshalJSON(b []byte) error {
	type alias MemorySettings
	v := alias(DefaultMemorySettings())
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = MemorySettings(v)
	return nil
}

func (s LLMSettings) Value() (driver.Value, error)       { return jsonValue(s) }
func (s RetrievalSettings) Value() (driver.Value, error) { return jsonValue(s) }
func (s PromptSettings) Value() (driver.Value, error)    { return jsonValue(s) }
func (s AssistantSettings) Value() (driver.Value, error) { return jsonValue(s) }
func (s MemorySettings) Value() (driver.Value, error)    { return jsonValue(s) }

func (s *LLMSettings) Scan(src any) error       { return scanJSON(src, s) }
func (s *RetrievalSettings) Scan(src any) error { return scanJSON(src, s) }
func (s *PromptSettings) Scan(src any) error    { return scanJSON(src, s) }
func (s *AssistantSettings) Scan(src any) error { return scanJSON(src, s) }
func (s *MemorySettings) Scan(src any) error    { return scanJSON(src, s) }

type Assistant struct {
	Entity
	UserID            string            `json:"user_id" db:"user_id"`
	Name              string            `json:"name" db:"name"`
	LLMID             string            `json:"llm_id" db:"llm_id"`
	KnowledgeBaseIDs  StringList        `json:"knowledge_base_ids" db:"knowledge_base_ids"`
	LLMSettings       LLMSettings       `json:"llm_settings" db:"llm_settings"`
	RetrievalSettings RetrievalSettings `json:"retrieval_settings" db:"retrieval_settings"`
	PromptSettings    PromptSettings    `json:"prompt_settings" db:"prompt_settings"`
	AssistantSettings AssistantSettings `json:"assistant_settings" db:"assistant_settings"`
	MemorySettings    MemorySettings    `json:"memory_settings" db:"memory_settings"`
}

func (a *Assistant) TableName() TableName {
	return TABLE_ASSISTANT
}

func (a *Assistant) Columns() []string {
	return append(BaseColumns(), "user_id", "name", "llm_id", "knowledge_base_ids", "llm_settings",
		"retrieval_settings", "prompt_settings", "assistant_settings", "memory_settings")
}

func (a *Assistant) Values() []any {
	return append(a.baseValues(), a.UserID, a.Name, a.LLMID, a.KnowledgeBaseIDs, a.LLMSettings,
		a.RetrievalSettings, a.PromptSettings, a.AssistantSettings, a.MemorySettings)
}

func (a *Assistant) OwnerID() string {
	return a.UserID
}

type AssistantCreate struct {
	Name              string             `json:"name" binding:"required,min=1,max=255"`
	LLMID             string             `json:"llm_id" binding:"required"`
	KnowledgeBaseIDs  []string           `json:"knowledge_base_ids"`
	LLMSettings       *LLMSettings       `json:"llm_settings"`
	RetrievalSettings *RetrievalSettings `json:"retrieval_settings"`
	PromptSettings    *PromptSettings    `json:"prompt_settings"`
	AssistantSettings *AssistantSettings `json:"assistant_settings"`
	MemorySettings    *MemorySettings    `json:"memory_settings"`
}

func (p AssistantCreate) Serialize() map[string]any {
	return map[string]any{
		"name":               p.Name,
		"llm_id":             p.LLMID,
		"knowledge_base_ids": StringList(lo.Ternary(p.KnowledgeBaseIDs == nil, []string{}, p.KnowledgeBaseIDs)),
		"llm_settings":       lo.FromPtrOr(p.LLMSettings, DefaultLLMSettings()),
		"retrieval_settings": lo.FromPtrOr(p.RetrievalSettings, DefaultRetrievalSettings()),
		"prompt_settings":    lo.FromPtrOr(p.PromptSettings, DefaultPromptSettings()),
		"assistant_settings": lo.FromPtrOr(p.AssistantSettings, DefaultAssistantSettings()),
		"memory_settings":    lo.FromPtrOr(p.MemorySettings, DefaultMemorySettings()),
	}
}

type AssistantUpdate struct {
	Name              *string            `json:"name" binding:"omitempty,min=1,max=255"`
	LLMID             *string            `json:"llm_id"`
	KnowledgeBaseIDs  []string           `json:"knowledge_base_ids"`
	LLMSettings       *LLMSettings       `json:"llm_settings"`
	RetrievalSettings *RetrievalSettings `json:"retrieval_settings"`
	PromptSettings    *PromptSettings    `json:"prompt_settings"`
	AssistantSettings *AssistantSettings `json:"assistant_settings"`
	MemorySettings    *MemorySettings    `json:"memory_settings"`
}

func (p AssistantUpdate) Serialize() map[string]any {
	data := map[string]any{
		"name":               ptrValue(p.Name),
		"llm_id":             ptrValue(p.LLMID),
		"knowledge_base_ids": nil,
		"llm_settings":       ptrValue(p.LLMSettings),
		"retrieval_settings": ptrValue(p.RetrievalSettings),
		"prompt_settings":    ptrValue(p.PromptSettings),
		"assistant_settings": ptrValue(p.AssistantSettings),
		"memory_settings":    ptrValue(p.MemorySettings),
	}
	if p.KnowledgeBaseIDs != nil {
		data["knowledge_base_ids"] = StringList(p.KnowledgeBaseIDs)
	}
	return data
}

type AssistantOut struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	LLMID             string            `json:"llm_id"`
	KnowledgeBaseIDs  StringList        `json:"knowledge_base_ids"`
	LLMSettings       LLMSettings       `json:"llm_settings"`
	RetrievalSettings RetrievalSettings `json:"retrieval_settings"`
	PromptSettings    PromptSettings    `json:"prompt_settings"`
	AssistantSettings AssistantSettings `json:"assistant_settings"`
	MemorySettings    MemorySettings    `json:"memory_settings"`
	CreatedAt         int64             `json:"created_at"`
	UpdatedAt         int64             `json:"updated_at"`
}

func NewAssistantOut(a *Assistant) AssistantOut {
	return AssistantOut{
		ID:                a.ID,
		Name:              a.Name,
		LLMID:             a.LLMID,
		KnowledgeBaseIDs:  a.KnowledgeBaseIDs,
		LLMSettings:       a.LLMSettings,
		RetrievalSettings: a.RetrievalSettings,
		PromptSettings:    a.PromptSettings,
		AssistantSettings: a.AssistantSettings,
		MemorySettings:    a.MemorySettings,
		CreatedAt:         a.CreatedAt.Unix(),
		UpdatedAt:         a.UpdatedAt.Unix(),
	}
}

package types

// LLM is a model configuration owned by a user.
// The api key is kept in the secret store under (user_id, id), never in this table.
type LLM struct {
	Entity
	UserID    string `json:"user_id" db:"user_id"`
	Provider  string `json:"provider" db:"provider"`     // openai, azure, ollama ...
	ModelName string `json:"model_name" db:"model_name"` // e.g. gpt-4o-mini
	APIBase   string `json:"api_base" db:"api_base"`     // empty means the provider default
}

func (l *LLM) TableName() TableName {
	return TABLE_LLM
}

func (l *LLM) Columns() []string {
	return append(BaseColumns(), "user_id", "provider", "model_name", "api_base")
}

func (l *LLM) Values() []any {
	return append(l.baseValues(), l.UserID, l.Provider, l.ModelName, l.APIBase)
}

func (l *LLM) OwnerID() string {
	return l.UserID
}

const LLM_SECRET_FIELD_API_KEY = "api_key"

type LLMCreate struct {
	Provider  string  `json:"provider" binding:"required,max=64"`
	ModelName string  `json:"model_name" binding:"required,max=255"`
	APIBase   *string `json:"api_base" binding:"omitempty,url"`
	APIKey    string  `json:"api_key" binding:"required"`
}

func (p LLMCreate) Serialize() map[string]any {
	data := map[string]any{
		"provider":   p.Provider,
		"model_name": p.ModelName,
		"api_key":    p.APIKey,
	}
	if p.APIBase != nil {
		data["api_base"] = *p.APIBase
	}
	return data
}

type LLMUpdate struct {
	Provider  *string `json:"provider" binding:"omitempty,max=64"`
	ModelName *string `json:"model_name" binding:"omitempty,max=255"`
	APIBase   *string `json:"api_base" binding:"omitempty,url"`
	APIKey    *string `json:"api_key"`
}

func (p LLMUpdate) Serialize() map[string]any {
	return map[string]any{
		"provider":   ptrValue(p.Provider),
		"model_name": ptrValue(p.ModelName),
		"api_base":   ptrValue(p.APIBase),
		"api_key":    ptrValue(p.APIKey),
	}
}

type LLMOut struct {
	ID        string `json:"id"`
	Provider  string `json:"provider"`
	ModelName string `json:"model_name"`
	APIBase   string `json:"api_base,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

func NewLLMOut(l *LLM) LLMOut {
	return LLMOut{
		ID:        l.ID,
		Provider:  l.Provider,
		ModelName: l.ModelName,
		APIBase:   l.APIBase,
		CreatedAt: l.CreatedAt.Unix(),
		UpdatedAt: l.UpdatedAt.Unix(),
	}
}

type LLMVerifyResult struct {
	Valid bool `json:"valid"`
}

package validator

import (
	"context"
	"time"

	"github.com/knowhive/knowhive/app/store"
	"github.com/knowhive/knowhive/pkg/ai/openai"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

// CredentialChecker asks a provider whether apiKey is accepted at apiBase.
type CredentialChecker func(ctx context.Context, apiKey, apiBase string) (bool, error)

func OpenAICredentialChecker(timeout time.Duration) CredentialChecker {
	return func(ctx context.Context, apiKey, apiBase string) (bool, error) {
		return openai.New(apiKey, apiBase, timeout).VerifyCredentials(ctx)
	}
}

type LLMValidator[P types.Payload] struct {
	*Base[types.LLM, P]
	// Checker is consulted on save when set.
	Checker CredentialChecker
}

// NewLLMValidator keeps the api key out of the serialized columns, it belongs to the secret store.
func NewLLMValidator[P types.Payload](session *sqlstore.Session, repo store.LLMStore, payload P, userID string, checker CredentialChecker) *LLMValidator[P] {
	v := &LLMValidator[P]{
		Base:    NewBase[types.LLM](session, store.Repository[types.LLM](repo), payload, userID),
		Checker: checker,
	}
	v.Exclude = []string{types.LLM_SECRET_FIELD_API_KEY}
	v.Required = []string{"provider", "model_name"}
	v.Defaults = map[string]any{"api_base": ""}
	v.SaveValidate = v.saveValidate
	v.SaveSerialize = withOwner(userID)
	return v
}

// APIKey returns the key from the payload, if one was sent.
func (v *LLMValidator[P]) APIKey() (string, bool) {
	key, ok := stringField(v.Payload.Serialize(), types.LLM_SECRET_FIELD_API_KEY)
	return key, ok && key != ""
}

func (v *LLMValidator[P]) saveValidate(ctx context.Context, data map[string]any) (FieldErrors, error) {
	errs := FieldErrors{}
	if v.Checker == nil {
		return errs, nil
	}

	key, _ := v.APIKey()
	apiBase, _ := stringField(data, "api_base")
	results, err := v.RunQueries(ctx, nil, []RemoteCheck{
		func(ctx context.Context) (bool, error) {
			return v.Checker(ctx, key, apiBase)
		},
	})
	if err != nil {
		return nil, err
	}
	if !results[0] {
		errs.Add(types.LLM_SECRET_FIELD_API_KEY, i18n.FIELD_INVALID_API_KEY)
	}
	return errs, nil
}

package validator

import (
	"context"
	"fmt"

	"github.com/knowhive/knowhive/app/store"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

type AssistantValidator[P types.Payload] struct {
	*Base[types.Assistant, P]
}

func NewAssistantValidator[P types.Payload](session *sqlstore.Session, repo store.AssistantStore, payload P, userID string) *AssistantValidator[P] {
	v := &AssistantValidator[P]{
		Base: NewBase[types.Assistant](session, store.Repository[types.Assistant](repo), payload, userID),
	}
	v.Required = []string{"name", "llm_id"}
	v.Defaults = map[string]any{"knowledge_base_ids": types.StringList{}}
	v.SaveValidate = v.validateReferences
	v.UpdateValidate = v.validateReferences
	v.SaveSerialize = withOwner(userID)
	return v
}

// validateReferences fans the llm check and every knowledge base check out together.
func (v *AssistantValidator[P]) validateReferences(ctx context.Context, data map[string]any) (FieldErrors, error) {
	var (
		fields  []string
		queries []Query
	)
	if id, ok := stringField(data, "llm_id"); ok {
		fields = append(fields, "llm_id")
		queries = append(queries, v.ValidateIsOwner(types.TABLE_LLM, id, v.UserID))
	}
	if ids, ok := data["knowledge_base_ids"].(types.StringList); ok {
		for i, id := range ids {
			fields = append(fields, fmt.Sprintf("knowledge_base_ids[%d]", i))
			queries = append(queries, v.ValidateIsOwner(types.TABLE_KNOWLEDGE_BASE, id, v.UserID))
		}
	}

	errs := FieldErrors{}
	if len(queries) == 0 {
		return errs, nil
	}

	results, err := v.RunQueries(ctx, queries, nil)
	if err != nil {
		return nil, err
	}
	for i, field := range fields {
		if !results[i] {
			errs.Add(field, i18n.FIELD_REFERENCE_MISSING)
		}
	}
	return errs, nil
}

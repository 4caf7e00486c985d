package validator

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/knowhive/knowhive/app/store"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

type KnowledgeBaseValidator[P types.Payload] struct {
	*Base[types.KnowledgeBase, P]
	// TargetID is the knowledge base being updated, it does not collide with its own name.
	TargetID string
}

func NewKnowledgeBaseValidator[P types.Payload](session *sqlstore.Session, repo store.KnowledgeBaseStore, payload P, userID string) *KnowledgeBaseValidator[P] {
	v := &KnowledgeBaseValidator[P]{
		Base: NewBase[types.KnowledgeBase](session, store.Repository[types.KnowledgeBase](repo), payload, userID),
	}
	v.Required = []string{"llm_model_id", "embedding_model_id", "name"}
	v.Defaults = map[string]any{"parser": types.DEFAULT_PARSER, "is_external_bucket": false}
	v.SaveValidate = v.validateReferences
	v.UpdateValidate = v.validateReferences
	v.SaveSerialize = withOwner(userID)
	return v
}

// validateReferences checks the fields present in data: both models must be owned
// and the name must be free among the user's live knowledge bases.
func (v *KnowledgeBaseValidator[P]) validateReferences(ctx context.Context, data map[string]any) (FieldErrors, error) {
	var (
		fields  []string
		queries []Query
	)
	for _, field := range []string{"llm_model_id", "embedding_model_id"} {
		if id, ok := stringField(data, field); ok {
			fields = append(fields, field)
			queries = append(queries, v.ValidateIsOwner(types.TABLE_LLM, id, v.UserID))
		}
	}

	name, hasName := stringField(data, "name")
	if hasName {
		queries = append(queries, v.ValidateIsTaken(types.TABLE_KNOWLEDGE_BASE, sq.Eq{
			types.COLUMN_USER_ID: v.UserID,
			"name":               name,
		}, v.TargetID))
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
	if hasName && results[len(results)-1] {
		errs.Add("name", i18n.FIELD_NAME_TAKEN)
	}
	return errs, nil
}

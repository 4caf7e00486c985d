package validator

import (
	"context"

	"github.com/knowhive/knowhive/app/store"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

type DocumentValidator[P types.Payload] struct {
	*Base[types.Document, P]
}

func NewDocumentValidator[P types.Payload](session *sqlstore.Session, repo store.DocumentStore, payload P, userID string) *DocumentValidator[P] {
	v := &DocumentValidator[P]{
		Base: NewBase[types.Document](session, store.Repository[types.Document](repo), payload, userID),
	}
	v.Required = []string{"name"}
	v.Defaults = map[string]any{"parser": types.DEFAULT_PARSER}
	v.SaveValidate = v.saveValidate
	v.UpdateValidate = v.updateValidate
	v.SaveSerialize = withOwner(userID)
	return v
}

func (v *DocumentValidator[P]) saveValidate(ctx context.Context, data map[string]any) (FieldErrors, error) {
	kbID, _ := stringField(data, "knowledge_base_id")
	results, err := v.RunQueries(ctx, []Query{
		v.ValidateIsOwner(types.TABLE_KNOWLEDGE_BASE, kbID, v.UserID),
	}, nil)
	if err != nil {
		return nil, err
	}

	errs := FieldErrors{}
	if !results[0] {
		errs.Add("knowledge_base_id", i18n.FIELD_REFERENCE_MISSING)
	}
	if parser, ok := stringField(data, "parser"); ok && !types.IsKnownParser(parser) {
		errs.Add("parser", i18n.FIELD_UNKNOWN_PARSER)
	}
	return errs, nil
}

func (v *DocumentValidator[P]) updateValidate(_ context.Context, data map[string]any) (FieldErrors, error) {
	errs := FieldErrors{}
	if parser, ok := stringField(data, "parser"); ok && !types.IsKnownParser(parser) {
		errs.Add("parser", i18n.FIELD_UNKNOWN_PARSER)
	}
	return errs, nil
}

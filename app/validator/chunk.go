package validator

import (
	"context"

	"github.com/knowhive/knowhive/app/store"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

type ChunkValidator[P types.Payload] struct {
	*Base[types.Chunk, P]
	DocumentID string
}

func NewChunkValidator[P types.Payload](session *sqlstore.Session, repo store.ChunkStore, payload P, userID, documentID string) *ChunkValidator[P] {
	v := &ChunkValidator[P]{
		Base:       NewBase[types.Chunk](session, store.Repository[types.Chunk](repo), payload, userID),
		DocumentID: documentID,
	}
	v.Required = []string{"content"}
	v.Defaults = map[string]any{"status": true, "questions": types.StringList{}, "keywords": types.StringList{}}
	v.SaveValidate = v.saveValidate
	v.SaveSerialize = func(_ context.Context, data map[string]any) (map[string]any, error) {
		data["document_id"] = documentID
		return data, nil
	}
	return v
}

func (v *ChunkValidator[P]) saveValidate(ctx context.Context, _ map[string]any) (FieldErrors, error) {
	results, err := v.RunQueries(ctx, []Query{
		v.ValidateIsOwner(types.TABLE_DOCUMENT, v.DocumentID, v.UserID),
	}, nil)
	if err != nil {
		return nil, err
	}

	errs := FieldErrors{}
	if !results[0] {
		errs.Add("document_id", i18n.FIELD_REFERENCE_MISSING)
	}
	return errs, nil
}

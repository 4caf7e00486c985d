package validator

import (
	"context"
	"strings"

	"github.com/knowhive/knowhive/app/store"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/security"
	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

type UserValidator[P types.Payload] struct {
	*Base[types.User, P]
}

func NewUserValidator[P types.Payload](session *sqlstore.Session, repo store.UserStore, payload P, userID string) *UserValidator[P] {
	v := &UserValidator[P]{
		Base: NewBase[types.User](session, store.Repository[types.User](repo), payload, userID),
	}
	v.Required = []string{"first_name", "last_name", "password"}
	v.SaveValidate = v.saveValidate
	v.SaveSerialize = v.saveSerialize
	v.UpdateSerialize = v.updateSerialize
	return v
}

func (v *UserValidator[P]) saveValidate(ctx context.Context, data map[string]any) (FieldErrors, error) {
	email, _ := stringField(data, "email")
	results, err := v.RunQueries(ctx, []Query{
		v.ValidateIsUnique(types.TABLE_USER, "email", strings.ToLower(email)),
	}, nil)
	if err != nil {
		return nil, err
	}

	errs := FieldErrors{}
	if results[0] {
		errs.Add("email", i18n.FIELD_EMAIL_TAKEN)
	}
	return errs, nil
}

func hashPassword(data map[string]any) error {
	password, ok := stringField(data, "password")
	if !ok {
		return nil
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	data["password"] = hash
	return nil
}

func (v *UserValidator[P]) saveSerialize(_ context.Context, data map[string]any) (map[string]any, error) {
	if email, ok := stringField(data, "email"); ok {
		data["email"] = strings.ToLower(email)
	}
	return data, hashPassword(data)
}

func (v *UserValidator[P]) updateSerialize(_ context.Context, data map[string]any) (map[string]any, error) {
	return data, hashPassword(data)
}

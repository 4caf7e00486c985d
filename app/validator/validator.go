package validator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/knowhive/knowhive/app/store"
	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

type Operation int

const (
	OpDefault Operation = iota
	OpSave
	OpUpdate
)

// FieldErrors maps a payload field to its i18n message keys.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Messages flattens the errors into sorted "field: message" lines.
func (f FieldErrors) Messages() []string {
	var res []string
	for _, field := range lo.Keys(f) {
		for _, msg := range f[field] {
			res = append(res, field+": "+msg)
		}
	}
	slices.Sort(res)
	return res
}

// Query is a predicate evaluated against the relational store.
type Query func(ctx context.Context) (bool, error)

// RemoteCheck is a predicate evaluated against an external service.
type RemoteCheck func(ctx context.Context) (bool, error)

type (
	ValidateFunc  func(ctx context.Context, data map[string]any) (FieldErrors, error)
	SerializeFunc func(ctx context.Context, data map[string]any) (map[string]any, error)
)

// Base runs the validate, serialize and persist steps for one payload.
// A validator serves a single request and refuses reuse once it saved or updated.
type Base[T any, P types.Payload] struct {
	Session *sqlstore.Session
	Repo    store.Repository[T]
	Payload P
	UserID  string
	// Exclude lists payload fields that never reach the store.
	Exclude []string
	// Required lists NOT NULL columns a full update must carry.
	Required []string
	// Defaults are what a full update writes for a column the payload leaves empty.
	Defaults map[string]any

	Validate        ValidateFunc
	SaveValidate    ValidateFunc
	UpdateValidate  ValidateFunc
	SaveSerialize   SerializeFunc
	UpdateSerialize SerializeFunc

	errors   FieldErrors
	finished atomic.Bool
}

func NewBase[T any, P types.Payload](session *sqlstore.Session, repo store.Repository[T], payload P, userID string) *Base[T, P] {
	return &Base[T, P]{
		Session: session,
		Repo:    repo,
		Payload: payload,
		UserID:  userID,
		errors:  FieldErrors{},
	}
}

func (b *Base[T, P]) Errors() FieldErrors {
	return b.errors
}

func (b *Base[T, P]) ValidateExists(table types.TableName, id string) Query {
	return func(ctx context.Context) (bool, error) {
		return b.Session.Exists(ctx, table.Name(), sq.Eq{types.COLUMN_ID: id, types.COLUMN_DELETED_AT: nil})
	}
}

func (b *Base[T, P]) ValidateIsOwner(table types.TableName, id, ownerID string) Query {
	return func(ctx context.Context) (bool, error) {
		ownership, err := b.Session.Ownership(ctx, table.Name(), types.COLUMN_USER_ID, id, ownerID)
		if err != nil {
			return false, err
		}
		return ownership == sqlstore.OwnershipOwned, nil
	}
}

// ValidateIsUnique is true when value is already taken, soft-deleted rows included.
func (b *Base[T, P]) ValidateIsUnique(table types.TableName, field string, value any) Query {
	return func(ctx context.Context) (bool, error) {
		return b.Session.Exists(ctx, table.Name(), sq.Eq{field: value})
	}
}

// ValidateIsTaken is true when a live row other than exceptID matches filters.
func (b *Base[T, P]) ValidateIsTaken(table types.TableName, filters sq.Eq, exceptID string) Query {
	return func(ctx context.Context) (bool, error) {
		where := sq.And{filters, sq.Eq{types.COLUMN_DELETED_AT: nil}}
		if exceptID != "" {
			where = append(where, sq.NotEq{types.COLUMN_ID: exceptID})
		}
		return b.Session.Exists(ctx, table.Name(), where)
	}
}

// RunQueries evaluates every query and remote check concurrently.
// Results keep the input order, queries first. The first failure cancels the rest.
func (b *Base[T, P]) RunQueries(ctx context.Context, queries []Query, remoteChecks []RemoteCheck) ([]bool, error) {
	ctx, cancel := b.Session.Bind(ctx)
	defer cancel()

	results := make([]bool, len(queries)+len(remoteChecks))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			ok, err := q(gctx)
			if err != nil {
				return err
			}
			results[i] = ok
			return nil
		})
	}
	for i, check := range remoteChecks {
		g.Go(func() error {
			ok, err := check(gctx)
			if err != nil {
				return err
			}
			results[len(queries)+i] = ok
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// IsValid runs the hook for op and keeps its field errors.
func (b *Base[T, P]) IsValid(ctx context.Context, op Operation) (bool, error) {
	if b.finished.Load() {
		return false, errors.ErrValidatorUsed
	}

	hook := b.Validate
	switch op {
	case OpSave:
		hook = b.SaveValidate
	case OpUpdate:
		hook = b.UpdateValidate
	}

	b.errors = FieldErrors{}
	if hook == nil {
		return true, nil
	}

	fieldErrors, err := hook(ctx, b.Serialize())
	if err != nil {
		return false, err
	}
	if fieldErrors != nil {
		b.errors = fieldErrors
	}
	return len(b.errors) == 0, nil
}

// Serialize returns the payload columns minus the excluded fields.
func (b *Base[T, P]) Serialize(exclude ...string) map[string]any {
	data := b.Payload.Serialize()
	for _, field := range b.Exclude {
		delete(data, field)
	}
	for _, field := range exclude {
		delete(data, field)
	}
	return data
}

func (b *Base[T, P]) configurationError(op string) error {
	var zero T
	slog.Error("validator has no repository bound", slog.String("op", op), slog.String("entity", fmt.Sprintf("%T", zero)))
	return errors.New("Validator."+op, i18n.ERROR_INTERNAL, errors.ErrConfiguration)
}

// Save inserts the serialized payload after the save serialize hook.
func (b *Base[T, P]) Save(ctx context.Context) (*T, error) {
	if !b.finished.CompareAndSwap(false, true) {
		return nil, errors.ErrValidatorUsed
	}
	if b.Repo == nil {
		return nil, b.configurationError("Save")
	}

	data := b.Serialize()
	if b.SaveSerialize != nil {
		var err error
		if data, err = b.SaveSerialize(ctx, data); err != nil {
			return nil, err
		}
	}

	ctx, cancel := b.Session.Bind(ctx)
	defer cancel()
	return b.Repo.Insert(ctx, data)
}

// Update patches existing with the payload. A partial update only writes the fields that were sent,
// a full one writes every serialized column: empty ones fall back to Defaults or NULL,
// and an empty Required column rejects the whole update.
func (b *Base[T, P]) Update(ctx context.Context, existing *T, partial bool) (*T, error) {
	if !b.finished.CompareAndSwap(false, true) {
		return nil, errors.ErrValidatorUsed
	}
	if b.Repo == nil {
		return nil, b.configurationError("Update")
	}
	if existing == nil {
		return nil, errors.New("Validator.Update", i18n.ERROR_NOT_FOUND, errors.ErrNotFound)
	}
	entity, ok := any(existing).(types.Persistable)
	if !ok {
		return nil, b.configurationError("Update")
	}

	data := b.Serialize()
	if b.UpdateSerialize != nil {
		var err error
		if data, err = b.UpdateSerialize(ctx, data); err != nil {
			return nil, err
		}
	}
	if partial {
		data = lo.OmitBy(data, func(_ string, v any) bool { return v == nil })
	} else if missing := b.resetEmpty(data); len(missing) > 0 {
		b.errors = missing
		return nil, errors.New("Validator.Update", i18n.ERROR_VALIDATION, errors.ErrInvalidInput).
			WithData(map[string]any{"fields": map[string][]string(missing)})
	}

	ctx, cancel := b.Session.Bind(ctx)
	defer cancel()
	return b.Repo.UpdateByID(ctx, entity.Base().ID, data)
}

// resetEmpty fills empty columns from Defaults and reports the Required ones still empty.
func (b *Base[T, P]) resetEmpty(data map[string]any) FieldErrors {
	missing := FieldErrors{}
	for field, v := range data {
		if v != nil {
			continue
		}
		if def, ok := b.Defaults[field]; ok {
			data[field] = def
		} else if slices.Contains(b.Required, field) {
			missing.Add(field, i18n.FIELD_RULE_PREFIX+"required")
		}
	}
	return missing
}

func withOwner(userID string) SerializeFunc {
	return func(_ context.Context, data map[string]any) (map[string]any, error) {
		data[types.COLUMN_USER_ID] = userID
		return data, nil
	}
}

func stringField(data map[string]any, field string) (string, bool) {
	v, ok := data[field].(string)
	return v, ok
}

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/types"
)

// Model binds an entity struct to its pointer, which carries the table metadata.
type Model[T any] interface {
	*T
	types.Persistable
}

// Repository implements the shared CRUD surface for one entity kind.
type Repository[T any, M Model[T]] struct {
	CommonFields
	columns map[string]struct{}
	clock   func() time.Time
}

func NewRepository[T any, M Model[T]](provider SqlProviderAchieve) *Repository[T, M] {
	model := M(new(T))
	repo := &Repository[T, M]{
		columns: make(map[string]struct{}),
		clock:   time.Now,
	}
	repo.SetProvider(provider)
	repo.SetTable(model.TableName())
	repo.SetAllColumns(model.Columns()...)
	for _, c := range model.Columns() {
		repo.columns[c] = struct{}{}
	}
	return repo
}

// SetClock replaces the time source used for system timestamps.
func (r *Repository[T, M]) SetClock(clock func() time.Time) {
	r.clock = clock
}

func (r *Repository[T, M]) now() time.Time {
	return r.clock().UTC().Truncate(time.Microsecond)
}

func live() sq.Eq {
	return sq.Eq{types.COLUMN_DELETED_AT: nil}
}

func (r *Repository[T, M]) HasColumn(column string) bool {
	_, ok := r.columns[column]
	return ok
}

func (r *Repository[T, M]) filters(filters map[string]any) (sq.Eq, error) {
	where := sq.Eq{}
	for k, v := range filters {
		if !r.HasColumn(k) {
			return nil, fmt.Errorf("%w: %q on %s", errors.ErrUnknownField, k, r.GetTable())
		}
		where[k] = v
	}
	return where, nil
}

func (r *Repository[T, M]) patch(patch map[string]any) (map[string]any, error) {
	set := make(map[string]any, len(patch))
	for k, v := range patch {
		if !r.HasColumn(k) || types.IsSystemColumn(k) {
			return nil, fmt.Errorf("%w: %q on %s", errors.ErrUnknownField, k, r.GetTable())
		}
		set[k] = v
	}
	return set, nil
}

func (r *Repository[T, M]) selectLive() sq.SelectBuilder {
	return r.Builder().Select(r.GetAllColumns()...).From(r.GetTable()).Where(live())
}

func (r *Repository[T, M]) exec(ctx context.Context, builder sq.Sqlizer) (int64, error) {
	queryString, args, err := builder.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	res, err := r.GetMaster(ctx).Exec(queryString, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repository[T, M]) get(ctx context.Context, query sq.SelectBuilder) (*T, error) {
	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	res := new(T)
	if err = r.GetReplica(ctx).Get(res, queryString, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return res, nil
}

func (r *Repository[T, M]) list(ctx context.Context, query sq.SelectBuilder) ([]*T, error) {
	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []*T
	if err = r.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

// Create inserts a fully populated entity, assigning id and timestamps when missing.
func (r *Repository[T, M]) Create(ctx context.Context, entity *T) error {
	model := M(entity)
	base := model.Base()
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = r.now()
	}
	if base.UpdatedAt.IsZero() {
		base.UpdatedAt = base.CreatedAt
	}

	query := r.Builder().Insert(r.GetTable()).
		Columns(model.Columns()...).
		Values(model.Values()...)

	_, err := r.exec(ctx, query)
	return err
}

// Insert stores the non-nil values of data as a new row. Columns left out fall back to their schema defaults.
func (r *Repository[T, M]) Insert(ctx context.Context, data map[string]any) (*T, error) {
	set, err := r.patch(lo.OmitBy(data, func(_ string, v any) bool { return v == nil }))
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := r.now()
	keys := lo.Keys(set)
	slices.Sort(keys)

	columns := append([]string{types.COLUMN_ID, types.COLUMN_CREATED_AT, types.COLUMN_UPDATED_AT}, keys...)
	values := []any{id, now, now}
	for _, k := range keys {
		values = append(values, set[k])
	}

	query := r.Builder().Insert(r.GetTable()).Columns(columns...).Values(values...)
	if _, err = r.exec(ctx, query); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID returns nil when no live row has the id.
func (r *Repository[T, M]) GetByID(ctx context.Context, id string) (*T, error) {
	return r.get(ctx, r.selectLive().Where(sq.Eq{types.COLUMN_ID: id}))
}

// GetByField returns the oldest live row whose field equals value.
func (r *Repository[T, M]) GetByField(ctx context.Context, field string, value any) (*T, error) {
	where, err := r.filters(map[string]any{field: value})
	if err != nil {
		return nil, err
	}
	return r.get(ctx, r.selectLive().Where(where).OrderBy(types.COLUMN_CREATED_AT, types.COLUMN_ID).Limit(1))
}

func (r *Repository[T, M]) GetAll(ctx context.Context, filters map[string]any) ([]*T, error) {
	where, err := r.filters(filters)
	if err != nil {
		return nil, err
	}
	query := r.selectLive()
	if len(where) > 0 {
		query = query.Where(where)
	}
	return r.list(ctx, query.OrderBy(types.COLUMN_CREATED_AT, types.COLUMN_ID))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches live rows whose column contains term, ignoring case.
func (r *Repository[T, M]) Search(ctx context.Context, column, term string, filters map[string]any) ([]*T, error) {
	if !r.HasColumn(column) {
		return nil, fmt.Errorf("%w: %q on %s", errors.ErrUnknownField, column, r.GetTable())
	}
	where, err := r.filters(filters)
	if err != nil {
		return nil, err
	}

	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	query := r.selectLive().Where(sq.Expr("LOWER("+column+") LIKE ? ESCAPE '\\'", pattern))
	if len(where) > 0 {
		query = query.Where(where)
	}
	return r.list(ctx, query.OrderBy(types.COLUMN_CREATED_AT, types.COLUMN_ID))
}

func (r *Repository[T, M]) Count(ctx context.Context, filters map[string]any) (int64, error) {
	where, err := r.filters(filters)
	if err != nil {
		return 0, err
	}
	query := r.Builder().Select("COUNT(*)").From(r.GetTable()).Where(live())
	if len(where) > 0 {
		query = query.Where(where)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var total int64
	if err = r.GetReplica(ctx).Get(&total, queryString, args...); err != nil {
		return 0, err
	}
	return total, nil
}

// UpdateByID patches a live row and returns it, or nil when the row is absent or soft-deleted.
// updated_at always moves forward, even when the clock has not.
func (r *Repository[T, M]) UpdateByID(ctx context.Context, id string, patch map[string]any) (*T, error) {
	set, err := r.patch(patch)
	if err != nil {
		return nil, err
	}

	queryString, args, err := r.Builder().Select(types.COLUMN_UPDATED_AT).From(r.GetTable()).
		Where(sq.Eq{types.COLUMN_ID: id}).Where(live()).ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var prev time.Time
	if err = r.GetMaster(ctx).Get(&prev, queryString, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	next := r.now()
	if !next.After(prev) {
		next = prev.Add(time.Microsecond)
	}

	query := r.Builder().Update(r.GetTable()).
		SetMap(set).
		Set(types.COLUMN_UPDATED_AT, next).
		Where(sq.Eq{types.COLUMN_ID: id}).
		Where(live())

	affected, err := r.exec(ctx, query)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// UpdateMany patches every live row matching filters.
func (r *Repository[T, M]) UpdateMany(ctx context.Context, filters, patch map[string]any) (int64, error) {
	where, err := r.filters(filters)
	if err != nil {
		return 0, err
	}
	set, err := r.patch(patch)
	if err != nil {
		return 0, err
	}

	query := r.Builder().Update(r.GetTable()).
		SetMap(set).
		Set(types.COLUMN_UPDATED_AT, r.now()).
		Where(live())
	if len(where) > 0 {
		query = query.Where(where)
	}
	return r.exec(ctx, query)
}

// MarkDeletedByID soft-deletes a live row. A row that is already marked reports false.
func (r *Repository[T, M]) MarkDeletedByID(ctx context.Context, id string) (bool, error) {
	affected, err := r.MarkDeletedMany(ctx, map[string]any{types.COLUMN_ID: id})
	return affected > 0, err
}

func (r *Repository[T, M]) MarkDeletedMany(ctx context.Context, filters map[string]any) (int64, error) {
	where, err := r.filters(filters)
	if err != nil {
		return 0, err
	}

	now := r.now()
	query := r.Builder().Update(r.GetTable()).
		Set(types.COLUMN_DELETED_AT, now).
		Set(types.COLUMN_UPDATED_AT, now).
		Where(live())
	if len(where) > 0 {
		query = query.Where(where)
	}
	return r.exec(ctx, query)
}

// DeleteByID removes the row for good, whether or not it was soft-deleted.
func (r *Repository[T, M]) DeleteByID(ctx context.Context, id string) (bool, error) {
	affected, err := r.exec(ctx, r.Builder().Delete(r.GetTable()).Where(sq.Eq{types.COLUMN_ID: id}))
	return affected > 0, err
}

// DeleteMany hard-deletes the live rows matching filters.
func (r *Repository[T, M]) DeleteMany(ctx context.Context, filters map[string]any) (int64, error) {
	where, err := r.filters(filters)
	if err != nil {
		return 0, err
	}
	query := r.Builder().Delete(r.GetTable()).Where(live())
	if len(where) > 0 {
		query = query.Where(where)
	}
	return r.exec(ctx, query)
}

// PurgeDeleted hard-deletes rows soft-deleted before the given time.
func (r *Repository[T, M]) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	query := r.Builder().Delete(r.GetTable()).
		Where(sq.NotEq{types.COLUMN_DELETED_AT: nil}).
		Where(sq.Lt{types.COLUMN_DELETED_AT: before.UTC()})
	return r.exec(ctx, query)
}

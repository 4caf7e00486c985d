package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	sq "github.com/Masterminds/squirrel"
)

// Session scopes store access to one request. Closing it cancels the scope,
// so queries issued through it cannot outlive the request.
type Session struct {
	ctx      context.Context
	cancel   context.CancelFunc
	provider *SqlProvider
	once     sync.Once
}

func (s *SqlProvider) OpenSession(ctx context.Context) *Session {
	scoped, cancel := context.WithCancel(ctx)
	return &Session{
		ctx:      scoped,
		cancel:   cancel,
		provider: s,
	}
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) Provider() *SqlProvider {
	return s.provider
}

// Close is safe to call more than once.
func (s *Session) Close() {
	s.once.Do(s.cancel)
}

// Bind derives a context that ends when either ctx or the session ends.
func (s *Session) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	bound, cancel := context.WithCancel(ctx)
	if s.ctx.Err() != nil {
		cancel()
		return bound, cancel
	}
	stop := context.AfterFunc(s.ctx, cancel)
	return bound, func() {
		stop()
		cancel()
	}
}

// Exists reports whether table has at least one row matching where.
func (s *Session) Exists(ctx context.Context, table string, where sq.Sqlizer) (bool, error) {
	ctx, cancel := s.Bind(ctx)
	defer cancel()

	query, args, err := s.provider.Builder().Select("1").From(table).Where(where).Limit(1).ToSql()
	if err != nil {
		return false, err
	}

	var one int
	if err = s.provider.GetReplica().QueryRowxContext(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type Ownership int

const (
	OwnershipAbsent Ownership = iota
	OwnershipForeign
	OwnershipOwned
)

func (o Ownership) String() string {
	switch o {
	case OwnershipOwned:
		return "owned"
	case OwnershipForeign:
		return "foreign"
	}
	return "absent"
}

// Ownership resolves whether the live row id of table belongs to ownerID.
// It separates a missing row from a row held by someone else.
func (s *Session) Ownership(ctx context.Context, table, ownerColumn, id, ownerID string) (Ownership, error) {
	ctx, cancel := s.Bind(ctx)
	defer cancel()

	query, args, err := s.provider.Builder().Select(ownerColumn).From(table).
		Where(sq.Eq{"id": id, "deleted_at": nil}).Limit(1).ToSql()
	if err != nil {
		return OwnershipAbsent, err
	}

	var owner string
	if err = s.provider.GetReplica().QueryRowxContext(ctx, query, args...).Scan(&owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OwnershipAbsent, nil
		}
		return OwnershipAbsent, err
	}
	if owner != ownerID {
		return OwnershipForeign, nil
	}
	return OwnershipOwned, nil
}

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/knowhive/knowhive/pkg/types"
)

func ErrorSqlBuild(err error) error {
	return fmt.Errorf("failed to build sql query, %w", err)
}

type SqlProviderAchieve interface {
	GetMaster() *sqlx.DB
	GetReplica() *sqlx.DB
	GetTxFromCtx(ctx context.Context) *sqlx.Tx
	Builder() sq.StatementBuilderType
	Driver() string
}

// store 基础设置
type CommonFields struct {
	table      string
	provider   SqlProviderAchieve
	allColumns []string
}

func (c *CommonFields) GetTable(...any) string {
	return c.table
}

func (c *CommonFields) SetAllColumns(str ...string) {
	c.allColumns = str
}

func (c *CommonFields) GetAllColumns() []string {
	return c.allColumns
}

func (c *CommonFields) GetAllColumnsWithPrefix(prefix string) []string {
	newColumns := make([]string, 0, len(c.allColumns))
	for _, v := range c.allColumns {
		newColumns = append(newColumns, prefix+"."+v)
	}
	return newColumns
}

func (c *CommonFields) SetTable(table types.TableName) {
	c.table = table.Name()
}

func (c *CommonFields) SetProvider(p SqlProviderAchieve) {
	c.provider = p
}

func (c *CommonFields) Builder() sq.StatementBuilderType {
	return c.provider.Builder()
}

type Master interface {
	Exec(query string, args ...any) (sql.Result, error)
	Get(dest any, query string, args ...any) error
}

// GetMaster prefers the transaction carried by ctx.
func (c *CommonFields) GetMaster(ctx context.Context) Master {
	if tx := c.provider.GetTxFromCtx(ctx); tx != nil {
		return &txWithContext{tx: tx, ctx: ctx}
	}
	return &dbWithContext{
		db:  c.provider.GetMaster(),
		ctx: ctx,
	}
}

type Replica interface {
	Get(dest any, query string, args ...any) error
	Select(dest any, query string, args ...any) error
	QueryRowx(query string, args ...any) *sqlx.Row
}

// GetReplica reads inside the transaction of ctx when there is one, so a transaction sees its own writes.
func (c *CommonFields) GetReplica(ctx context.Context) Replica {
	if tx := c.provider.GetTxFromCtx(ctx); tx != nil {
		return &txWithContext{tx: tx, ctx: ctx}
	}
	return &dbWithContext{
		db:  c.provider.GetReplica(),
		ctx: ctx,
	}
}

type dbWithContext struct {
	db  *sqlx.DB
	ctx context.Context
}

func (d *dbWithContext) Get(dest any, query string, args ...any) error {
	return d.db.GetContext(d.ctx, dest, query, args...)
}

func (d *dbWithContext) QueryRowx(query string, args ...any) *sqlx.Row {
	return d.db.QueryRowxContext(d.ctx, query, args...)
}

func (d *dbWithContext) Select(dest any, query string, args ...any) error {
	return d.db.SelectContext(d.ctx, dest, query, args...)
}

func (d *dbWithContext) Exec(query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(d.ctx, query, args...)
}

type txWithContext struct {
	tx  *sqlx.Tx
	ctx context.Context
}

func (d *txWithContext) Get(dest any, query string, args ...any) error {
	return d.tx.GetContext(d.ctx, dest, query, args...)
}

func (d *txWithContext) QueryRowx(query string, args ...any) *sqlx.Row {
	return d.tx.QueryRowxContext(d.ctx, query, args...)
}

func (d *txWithContext) Select(dest any, query string, args ...any) error {
	return d.tx.SelectContext(d.ctx, dest, query, args...)
}

func (d *txWithContext) Exec(query string, args ...any) (sql.Result, error) {
	return d.tx.ExecContext(d.ctx, query, args...)
}

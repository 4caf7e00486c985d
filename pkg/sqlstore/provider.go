package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
)

const (
	DRIVER_POSTGRES = "postgres"
	DRIVER_SQLITE   = "sqlite3"
)

type SqlCommons interface {
	GetTable(...any) string
}

type ConnectConfig interface {
	DriverName() string
	FormatDSN() string
}

type SqlProvider struct {
	master   *sqlx.DB
	replicas []*sqlx.DB
	driver   string
	builder  sq.StatementBuilderType
}

// Builder returns a statement builder using the placeholder format of the driver.
func (s *SqlProvider) Builder() sq.StatementBuilderType {
	return s.builder
}

func (s *SqlProvider) Driver() string {
	return s.driver
}

func (s *SqlProvider) GetTxFromCtx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(TransactionKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}

func (s *SqlProvider) GetMaster() *sqlx.DB {
	return s.master
}

func (s *SqlProvider) GetReplica() *sqlx.DB {
	return lo.Sample(s.replicas)
}

type TransactionKey struct{}

// Transaction runs next inside one transaction carried by the context.
// Nested calls join the outer transaction.
func (s *SqlProvider) Transaction(ctx context.Context, next func(ctx context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if s.GetTxFromCtx(ctx) != nil {
		return next(ctx)
	}

	tx, err := s.GetMaster().BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Transaction rollbacked", slog.Any("recover", r))
			_ = tx.Rollback()
			panic(r)
		}
		if err != nil {
			slog.Error("Transaction rollbacked", slog.String("error", err.Error()))
			_ = tx.Rollback()
		}
	}()

	if err = next(context.WithValue(ctx, TransactionKey{}, tx)); err != nil {
		return err
	}

	return tx.Commit()
}

func builderFor(driver string) sq.StatementBuilderType {
	if driver == DRIVER_POSTGRES {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

func initConnection(conf ConnectConfig) (*sqlx.DB, error) {
	switch conf.DriverName() {
	case DRIVER_POSTGRES, DRIVER_SQLITE:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", conf.DriverName())
	}

	engine, err := sqlx.Open(conf.DriverName(), conf.FormatDSN())
	if err != nil {
		return nil, err
	}
	if conf.DriverName() == DRIVER_SQLITE {
		// sqlite allows a single writer
		engine.SetMaxOpenConns(1)
	}
	return engine, nil
}

func NewProvider(m ConnectConfig, s ...ConnectConfig) (*SqlProvider, error) {
	engine, err := initConnection(m)
	if err != nil {
		return nil, err
	}

	provider := &SqlProvider{
		master:  engine,
		driver:  m.DriverName(),
		builder: builderFor(m.DriverName()),
	}

	for _, v := range s {
		slave, err := initConnection(v)
		if err != nil {
			return nil, err
		}
		provider.replicas = append(provider.replicas, slave)
	}

	if len(provider.replicas) == 0 {
		provider.replicas = append(provider.replicas, engine)
	}

	return provider, nil
}

func MustSetupProvider(m ConnectConfig, s ...ConnectConfig) *SqlProvider {
	provider, err := NewProvider(m, s...)
	if err != nil {
		panic(err)
	}
	return provider
}

// NewProviderFromDB wraps an already opened handle, e.g. a sqlmock connection.
func NewProviderFromDB(db *sql.DB, driver string) *SqlProvider {
	engine := sqlx.NewDb(db, driver)
	return &SqlProvider{
		master:   engine,
		replicas: []*sqlx.DB{engine},
		driver:   driver,
		builder:  builderFor(driver),
	}
}

func (s *SqlProvider) Ping(ctx context.Context) error {
	return s.master.PingContext(ctx)
}

func (s *SqlProvider) Close() error {
	var errs []error
	for _, r := range s.replicas {
		if r != s.master {
			errs = append(errs, r.Close())
		}
	}
	errs = append(errs, s.master.Close())
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

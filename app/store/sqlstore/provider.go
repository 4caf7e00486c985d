package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/knowhive/knowhive/app/store"
	"github.com/knowhive/knowhive/pkg/register"
	"github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/types"
)

//go:embed schema
var SchemaFiles embed.FS

type Provider struct {
	*sqlstore.SqlProvider
	stores *Stores
}

type Stores struct {
	store.UserStore
	store.LLMStore
	store.KnowledgeBaseStore
	store.DocumentStore
	store.ChunkStore
	store.AssistantStore
}

type RegisterKey struct{}

// NewProvider attaches every registered store to the connection.
func NewProvider(p *sqlstore.SqlProvider) *Provider {
	provider := &Provider{
		SqlProvider: p,
		stores:      &Stores{},
	}
	for _, f := range register.ResolveFuncHandlers[*Provider](RegisterKey{}) {
		f(provider)
	}
	return provider
}

func MustSetup(m sqlstore.ConnectConfig, s ...sqlstore.ConnectConfig) func() *Provider {
	provider := NewProvider(sqlstore.MustSetupProvider(m, s...))
	return func() *Provider {
		return provider
	}
}

func migrationTable() string {
	return types.TABLE_PREFIX + "schema_migrations"
}

// Install applies the embedded schema files of the current driver once each, in name order.
func (p *Provider) Install(ctx context.Context) error {
	if err := p.enableExtensions(ctx); err != nil {
		return err
	}

	if err := p.ensureMigrationTable(ctx); err != nil {
		return err
	}

	dir := path.Join("schema", p.Driver())
	files, err := fs.ReadDir(SchemaFiles, dir)
	if err != nil {
		return fmt.Errorf("no schema for driver %s: %w", p.Driver(), err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		executed, err := p.isFileExecuted(ctx, file.Name())
		if err != nil {
			return err
		}
		if executed {
			continue
		}

		content, err := SchemaFiles.ReadFile(path.Join(dir, file.Name()))
		if err != nil {
			return err
		}

		if _, err = p.GetMaster().ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to apply %s: %w", file.Name(), err)
		}

		if err = p.markFileExecuted(ctx, file.Name()); err != nil {
			return err
		}
		slog.Info("schema file applied", slog.String("file", file.Name()), slog.String("driver", p.Driver()))
	}
	return nil
}

func (p *Provider) enableExtensions(ctx context.Context) error {
	if p.Driver() != sqlstore.DRIVER_POSTGRES {
		return nil
	}
	extensions := []string{
		"CREATE EXTENSION IF NOT EXISTS vector;",
	}

	for _, ext := range extensions {
		if _, err := p.GetMaster().ExecContext(ctx, ext); err != nil {
			return fmt.Errorf("failed to enable extension: %w\nSQL: %s", err, ext)
		}
	}
	return nil
}

func (p *Provider) ensureMigrationTable(ctx context.Context) error {
	createTableSQL := `
CREATE TABLE IF NOT EXISTS ` + migrationTable() + ` (
    filename VARCHAR(255) PRIMARY KEY,
    executed_at BIGINT NOT NULL
);`
	_, err := p.GetMaster().ExecContext(ctx, createTableSQL)
	return err
}

func (p *Provider) isFileExecuted(ctx context.Context, filename string) (bool, error) {
	query, args, err := p.Builder().Select("COUNT(*)").From(migrationTable()).Where("filename = ?", filename).ToSql()
	if err != nil {
		return false, ErrorSqlBuild(err)
	}

	var count int
	if err = p.GetMaster().GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *Provider) markFileExecuted(ctx context.Context, filename string) error {
	query, args, err := p.Builder().Insert(migrationTable()).
		Columns("filename", "executed_at").
		Values(filename, time.Now().Unix()).
		Suffix("ON CONFLICT (filename) DO NOTHING").
		ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}
	_, err = p.GetMaster().ExecContext(ctx, query, args...)
	return err
}

func (p *Provider) UserStore() store.UserStore {
	return p.stores.UserStore
}

func (p *Provider) LLMStore() store.LLMStore {
	return p.stores.LLMStore
}

func (p *Provider) KnowledgeBaseStore() store.KnowledgeBaseStore {
	return p.stores.KnowledgeBaseStore
}

func (p *Provider) DocumentStore() store.DocumentStore {
	return p.stores.DocumentStore
}

func (p *Provider) ChunkStore() store.ChunkStore {
	return p.stores.ChunkStore
}

func (p *Provider) AssistantStore() store.AssistantStore {
	return p.stores.AssistantStore
}

// SetClock replaces the time source of every store, used by tests.
func (p *Provider) SetClock(clock func() time.Time) {
	for _, s := range []any{p.stores.UserStore, p.stores.LLMStore, p.stores.KnowledgeBaseStore,
		p.stores.DocumentStore, p.stores.ChunkStore, p.stores.AssistantStore} {
		if c, ok := s.(interface{ SetClock(func() time.Time) }); ok {
			c.SetClock(clock)
		}
	}
}

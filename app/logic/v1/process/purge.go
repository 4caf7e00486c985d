package process

import (
	"context"
	"log/slog"
	"time"

	"github.com/knowhive/knowhive/app/core"
	"github.com/knowhive/knowhive/pkg/register"
	"github.com/knowhive/knowhive/pkg/types"
)

const JOB_PURGE_DELETED = "purge_deleted"

func init() {
	register.RegisterFunc[*Process](ProcessKey{}, func(p *Process) {
		mustAddJob(p, JOB_PURGE_DELETED, p.core.Cfg().Process.PurgeSpec, PurgeDeleted)
	})
}

type purger interface {
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}

// PurgeDeleted hard-deletes rows soft-deleted longer than the retention window, children first.
// Users are kept so their emails stay taken.
func PurgeDeleted(ctx context.Context, core *core.Core) error {
	before := time.Now().Add(-core.Cfg().Process.PurgeAfter())
	stores := []struct {
		table types.TableName
		store purger
	}{
		{types.TABLE_CHUNK, core.Store().ChunkStore()},
		{types.TABLE_DOCUMENT, core.Store().DocumentStore()},
		{types.TABLE_ASSISTANT, core.Store().AssistantStore()},
		{types.TABLE_KNOWLEDGE_BASE, core.Store().KnowledgeBaseStore()},
		{types.TABLE_LLM, core.Store().LLMStore()},
	}

	for _, s := range stores {
		purged, err := s.store.PurgeDeleted(ctx, before)
		if err != nil {
			return err
		}
		if purged > 0 {
			slog.Info("soft-deleted rows purged", slog.String("table", s.table.Name()), slog.Int64("rows", purged))
		}
	}
	return nil
}

package process

import (
	"context"
	"log/slog"

	"github.com/knowhive/knowhive/app/core"
	"github.com/knowhive/knowhive/pkg/register"
)

const JOB_RECONCILE_DOCUMENT_COUNT = "reconcile_document_count"

func init() {
	register.RegisterFunc[*Process](ProcessKey{}, func(p *Process) {
		mustAddJob(p, JOB_RECONCILE_DOCUMENT_COUNT, p.core.Cfg().Process.ReconcileSpec, ReconcileDocumentCount)
	})
}

// ReconcileDocumentCount repairs the denormalized document counters of every knowledge base.
func ReconcileDocumentCount(ctx context.Context, core *core.Core) error {
	changed, err := core.Store().KnowledgeBaseStore().ReconcileDocumentCount(ctx)
	if err != nil {
		return err
	}
	if changed > 0 {
		slog.Info("document counters reconciled", slog.Int64("knowledge_bases", changed))
	}
	return nil
}

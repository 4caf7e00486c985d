package process

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/knowhive/knowhive/app/core"
	"github.com/knowhive/knowhive/pkg/register"
	"github.com/knowhive/knowhive/pkg/safe"
)

const jobTimeout = 10 * time.Minute

type JobFunc func(ctx context.Context, core *core.Core) error

type Process struct {
	cron *cron.Cron
	core *core.Core
	jobs map[string]JobFunc
}

type ProcessKey struct{}

// NewProcess schedules every registered job. A malformed cron spec stops the process.
func NewProcess(core *core.Core) *Process {
	p := &Process{
		cron: cron.New(),
		core: core,
		jobs: make(map[string]JobFunc),
	}

	for _, h := range register.ResolveFuncHandlers[*Process](ProcessKey{}) {
		h(p)
	}
	return p
}

func (p *Process) Cron() *cron.Cron {
	return p.cron
}

func (p *Process) Core() *core.Core {
	return p.core
}

// AddJob runs fn on spec, on one instance at a time.
func (p *Process) AddJob(name, spec string, fn JobFunc) error {
	if _, exists := p.jobs[name]; exists {
		return fmt.Errorf("job %s registered twice", name)
	}
	_, err := p.cron.AddFunc(spec, func() {
		safe.Run(func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			if err := p.RunOnce(ctx, name); err != nil {
				slog.Error("job failed", slog.String("job", name), slog.Any("error", err))
			}
		})
	})
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	p.jobs[name] = fn
	return nil
}

func mustAddJob(p *Process, name, spec string, fn JobFunc) {
	if err := p.AddJob(name, spec, fn); err != nil {
		panic(err)
	}
}

// RunOnce runs the named job now. It is a no-op when another instance holds the job lock.
func (p *Process) RunOnce(ctx context.Context, name string) error {
	fn, ok := p.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %s", name)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	locked, err := p.core.TryLock(ctx, "process:"+name, jobTimeout)
	if err != nil {
		p.core.Metrics().JobErrorInc(name)
		return err
	}
	if !locked {
		slog.Debug("job is running elsewhere", slog.String("job", name))
		return nil
	}

	timer := p.core.Metrics().JobTimer(name)
	defer timer.ObserveDuration()
	if err = fn(ctx, p.core); err != nil {
		p.core.Metrics().JobErrorInc(name)
		return err
	}
	return nil
}

func (p *Process) Start() {
	p.cron.Start()
}

// Stop waits for running jobs to return.
func (p *Process) Stop() {
	<-p.cron.Stop().Done()
}

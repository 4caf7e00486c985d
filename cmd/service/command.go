package service

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/knowhive/knowhive/app/core"
	"github.com/knowhive/knowhive/app/logic/v1/process"
	"github.com/knowhive/knowhive/app/store/sqlstore"
)

type Options struct {
	ConfigPath string
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "toml config file, the KNOWHIVE_* environment is used when empty")
}

func loadConfig(opts *Options) core.CoreConfig {
	return core.MustLoadBaseConfig(opts.ConfigPath)
}

func NewCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "service",
		Short: "run the http api together with the background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func Run(ctx context.Context, opts *Options) error {
	app := core.MustSetupCore(loadConfig(opts))
	defer app.Close()

	if err := app.Store().Install(ctx); err != nil {
		return err
	}

	p := process.NewProcess(app)
	p.Start()
	defer p.Stop()

	return serve(app)
}

func NewProcessCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "process",
		Short: "run the background jobs only",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunProcess(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunProcess(opts *Options) error {
	app := core.MustSetupCore(loadConfig(opts))
	defer app.Close()

	p := process.NewProcess(app)
	p.Start()
	slog.Info("process started")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs

	p.Stop()
	slog.Info("process stopped")
	return nil
}

func NewInstallCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "install",
		Short: "apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunInstall(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

// RunInstall only needs the database, so the secret store is not contacted.
func RunInstall(opts *Options) error {
	cfg := loadConfig(opts)
	store := sqlstore.MustSetup(cfg.Database)()
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := store.Install(ctx); err != nil {
		return err
	}
	slog.Info("schema installed", slog.String("driver", cfg.Database.DriverName()))
	return nil
}

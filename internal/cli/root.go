// Package cli implements the habitr command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/habitr/internal/config"
	"github.com/sadopc/habitr/internal/logger"
	"github.com/sadopc/habitr/internal/store"
	"github.com/sadopc/habitr/internal/tracker"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	dbPath     string
	format     string
}

// app is the opened runtime of one command invocation.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store *store.Store
	svc   *tracker.Service
}

func (o *options) open() (*app, error) {
	path := o.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Debug("database opened", zap.String("path", cfg.Database.Path))

	svc := tracker.New(st, tracker.Options{
		MaxTasksPerHabit: cfg.Schedule.MaxTasksPerHabit,
		LockTimeout:      cfg.Schedule.LockTimeout,
	})
	return &app{cfg: cfg, log: log, store: st, svc: svc}, nil
}

func (a *app) Close() {
	a.store.Close()
	a.log.Sync()
}

// run opens the app for the duration of fn and logs a failure at debug.
func (o *options) run(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := o.open()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(a); err != nil {
		a.log.Debug("command failed", zap.String("command", cmd.CommandPath()), zap.Error(err))
		return err
	}
	return nil
}

// NewRootCmd builds the habitr command tree.
func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "habitr",
		Short: "habitr - recurring habits, generated tasks and streaks",
		Long: `habitr tracks recurring habits. Each habit expands into time-boxed tasks
on its ISO-8601 interval; completing consecutive tasks builds streaks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return checkFormat(o.format)
		},
	}

	root.PersistentFlags().StringVar(&o.configPath, "config", "", "config file (default ~/.config/habitr/config.yaml)")
	root.PersistentFlags().StringVar(&o.dbPath, "db", "", "database path, overrides the config")
	root.PersistentFlags().StringVar(&o.format, "format", formatTable, "output format: table or json")

	root.AddCommand(habitsCmd(o))
	root.AddCommand(tasksCmd(o))
	root.AddCommand(analyticsCmd(o))
	root.AddCommand(exportCmd(o))
	root.AddCommand(serveCmd(o))

	// Without a subcommand habitr opens the interactive tracker.
	tui := tuiCmd(o)
	root.RunE = tui.RunE
	root.AddCommand(tui)
	return root
}

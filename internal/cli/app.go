package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/piste/internal/config"
	"github.com/roach88/piste/internal/metrics"
	"github.com/roach88/piste/internal/repository"
	"github.com/roach88/piste/internal/rules"
	"github.com/roach88/piste/internal/service"
	"github.com/roach88/piste/internal/store"
	"github.com/roach88/piste/internal/syncer"
)

// app is everything a command needs, wired from configuration.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	store    *store.Store
	repos    *repository.Repositories
	rankings *service.Rankings
	metrics  *metrics.Manager // nil unless metrics.enabled
	out      *OutputFormatter
	now      func() time.Time

	closers []func() error
}

// newLogger builds the process logger: a text handler on w at the configured
// level, Debug when verbose.
func newLogger(w io.Writer, level string, verbose bool) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// openApp loads configuration and opens the store with its observers,
// the optional NATS publisher and the rulebook. overrides run after the
// flags are applied.
func openApp(cmd *cobra.Command, opts *RootOptions, overrides ...func(*config.Config)) (*app, error) {
	ctx := commandContext(cmd)

	cfg, err := config.Load(ctx, opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}
	for _, o := range overrides {
		o(cfg)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, opts.Verbose)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid log level", err)
	}
	slog.SetDefault(logger)

	a := &app{
		cfg: cfg,
		log: logger,
		now: time.Now,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
			Verbose:   opts.Verbose,
		},
	}

	var storeObs store.Observer = store.NopObserver{}
	syncOpts := []syncer.Option{syncer.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewManager(metrics.WithNamespace(cfg.Metrics.Namespace))
		storeObs = a.metrics
		syncOpts = append(syncOpts, syncer.WithObserver(a.metrics))
	}

	book, err := rules.Load(cfg.RulebookPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load rulebook", err)
	}

	logger.Debug("opening database", "path", cfg.DBPath)
	st, err := store.OpenContext(ctx, cfg.DBPath, store.WithLogger(logger), store.WithObserver(storeObs))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	a.store = st
	a.closers = append(a.closers, st.Close)

	var pub syncer.Syncer = syncer.Nop{}
	if cfg.Sync.NATSURL != "" {
		ns, err := syncer.Connect(cfg.Sync.NATSURL, cfg.Sync.SubjectPrefix, syncOpts...)
		if err != nil {
			// Sync is best effort: the store stays usable offline.
			logger.Warn("sync disabled", "url", cfg.Sync.NATSURL, "error", err)
		} else {
			pub = ns
			a.closers = append(a.closers, ns.Close)
		}
	}

	a.repos = repository.New(st,
		repository.WithSyncer(pub),
		repository.WithLogger(logger),
	)
	a.rankings = service.NewRankings(a.repos,
		service.WithLogger(logger),
		service.WithRulebook(book),
		service.WithCutoffRatio(cfg.CutoffRatio),
	)
	return a, nil
}

// Close releases the publisher and the store, in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Error("error closing resource", "error", err)
		}
	}
}

// withApp opens the app, runs fn and closes it.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(commandContext(cmd), a)
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func formatCount(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

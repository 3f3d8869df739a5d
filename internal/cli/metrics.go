package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/piste/internal/config"
)

// MetricsOptions holds flags for the metrics command.
type MetricsOptions struct {
	*RootOptions
	Listen string
}

// NewMetricsCommand creates the metrics command.
func NewMetricsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MetricsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print or serve store metrics",
		Long: `Open the database with metrics enabled and print the collected series
(schema version and the migrations applied while opening) in the Prometheus
text exposition format, suitable for node_exporter's textfile collector.

With --listen the series are served on /metrics until interrupted.

Examples:
  piste metrics --db ./club.db > /var/lib/node_exporter/piste.prom
  piste metrics --db ./club.db --listen :9464`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts, func(cfg *config.Config) { cfg.Metrics.Enabled = true })
			if err != nil {
				return err
			}
			defer a.Close()

			if opts.Listen != "" {
				return serveMetrics(commandContext(cmd), a, opts.Listen)
			}

			families, err := a.metrics.Registry().Gather()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to gather metrics", err)
			}
			w := cmd.OutOrStdout()
			for _, mf := range families {
				if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "serve /metrics on this address instead of printing")
	return cmd
}

// serveMetrics exposes the registry over HTTP until ctx is done or the
// process receives SIGINT/SIGTERM.
func serveMetrics(parent context.Context, a *app, addr string) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			a.log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	a.log.Info("serving metrics", "addr", addr)

	select {
	case err := <-errCh:
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to serve on %s", addr), err)
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.log.Info("metrics server stopped")
	return nil
}

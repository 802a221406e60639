package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brouwer-lang/brouwer/internal"
	tt "github.com/brouwer-lang/brouwer/internal/types"
)

const metricsShutdownTimeout = 5 * time.Second

func newWatchCmd(o *options) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch [dirs...]",
		Short: "Re-check source files whenever they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}

			var extra []internal.EngineOption
			if metricsAddr != "" {
				extra = append(extra, internal.WithMetrics(internal.NewMetrics(nil)))
			}
			engine, _, err := o.engine(extra...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			report := func(filename string, diags []tt.Diagnostic, err error) {
				switch {
				case err != nil:
					diags = []tt.Diagnostic{internal.IOFailure(filename, err)}
				case len(diags) == 0:
					fmt.Fprintf(out, "ok: %s\n", filename)
					return
				}
				fmt.Fprint(out, formatFileDiagnostics(o.logger, filename, diags))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				shutdown, err := serveMetrics(o.logger, out, metricsAddr, engine.Metrics())
				if err != nil {
					return &ExitError{Code: ExitFailure, Err: err}
				}
				defer shutdown()
			}

			if err := engine.StartWatching(report, args...); err != nil {
				return &ExitError{Code: ExitFailure, Err: err}
			}
			<-ctx.Done()

			if err := engine.StopWatching(); err != nil {
				return &ExitError{Code: ExitFailure, Err: err}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")
	return cmd
}

// serveMetrics exposes metrics on /metrics at addr until the returned
// function is called.
func serveMetrics(logger *zap.Logger, out io.Writer, addr string, metrics *internal.Metrics) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	fmt.Fprintf(out, "metrics: http://%s/metrics\n", ln.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}, nil
}

package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bracketorder/internal/observability"
	"github.com/Sumatoshi-tech/bracketorder/internal/server"
)

const (
	serveAddrFlag        = "addr"
	serveShutdownTimeout = 10 * time.Second
)

// NewServeCommand creates the HTTP server command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reconstruction API over HTTP",
		Long: `Serve the reconstruction API over HTTP until interrupted.

Routes:
  POST /v1/reconstruct        ranking, rounds and links
  POST /v1/pairs              advancement links
  POST /v1/compare?a=..&b=..  relative order of two entrants
  GET  /healthz               liveness
  GET  /metrics               Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession(cmd, observability.ModeServe)
			if err != nil {
				return err
			}
			defer sess.close()

			cfg := server.Config{
				Addr:         sess.cfg.Server.Addr,
				ReadTimeout:  sess.cfg.Server.ReadTimeout,
				WriteTimeout: sess.cfg.Server.WriteTimeout,
				MaxBodyBytes: sess.cfg.Server.MaxBodyBytes,
			}

			if cmd.Flags().Changed(serveAddrFlag) {
				cfg.Addr, _ = cmd.Flags().GetString(serveAddrFlag)
			}

			ctx := contextOf(cmd)

			srv, err := server.Start(ctx, cfg, server.Deps{
				Service:        sess.svc,
				Tracer:         sess.providers.Tracer,
				Logger:         sess.logger,
				Metrics:        sess.svc.Metrics(),
				MetricsHandler: sess.providers.MetricsHandler,
				ValidateSchema: sess.cfg.Input.ValidateSchema,
			})
			if err != nil {
				return err
			}

			sess.logger.Info("server listening", "addr", "http://"+srv.Addr())

			select {
			case err = <-srv.Done():
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
			defer cancel()

			sess.logger.Info("server shutting down")

			err = srv.Shutdown(shutdownCtx)
			if err != nil {
				return err
			}

			return <-srv.Done()
		},
	}

	cmd.Flags().String(serveAddrFlag, "", "listen address (default: server.addr from the config)")

	return cmd
}

package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"archgraph/internal/api"
	"archgraph/internal/envelope"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP query API",
		Long: `Serve trace, subgraph, coverage, rules and component lookups over HTTP.
Every response uses the same JSON envelope as --json. Prometheus metrics
are exposed on /metrics.

Examples:
  archgraph serve
  archgraph serve --host 0.0.0.0 --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return g.fail(cmd, err)
			}
			defer a.close()
			if host == "" {
				host = a.cfg.Server.Bind
			}
			if port == 0 {
				port = a.cfg.Server.Port
			}
			return runServe(cmd.Context(), a, net.JoinHostPort(host, strconv.Itoa(port)))
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Host to bind to (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from config)")
	return cmd
}

func runServe(ctx context.Context, a *app, addr string) error {
	server := api.NewServer(a.engine(), api.Options{
		Addr:      addr,
		RateLimit: a.cfg.Server.RateLimit,
		RateBurst: a.cfg.Server.RateBurst,
		RulesFile: a.rulesFile(),
		Rules:     a.rulesOptions(),
		Logger:    a.logger,
		Now:       a.now,
	})

	serverErr := make(chan error, 1)
	go func() {
		fmt.Fprintf(a.errOut, "archgraph HTTP API server listening on http://%s\n", addr)
		fmt.Fprintln(a.errOut, "Press Ctrl+C to stop")
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			a.logger.Error("Server error", "error", err.Error())
			return a.emit(envelope.Failure(err))
		}
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Error during shutdown", "error", err.Error())
			return err
		}
		a.logger.Info("Server stopped gracefully")
	}
	return nil
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/podcast-planner/internal/config"
	"github.com/jonathan/podcast-planner/internal/server"
)

var (
	servePort  int
	serveFlags commonFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes REST endpoints for creating podcasts from arXiv papers.

Runs are persisted when DATABASE_URL (or --db-url) is set. Bearer token auth is
enabled with AUTH_ENABLED=true and requires JWT_SECRET.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default 8080, or PORT env var)")
	serveFlags.register(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := serveFlags.resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	var opts []server.Option
	if a.database != nil {
		opts = append(opts, server.WithStore(a.database))
	}
	if cfg.AuthEnabled {
		jwtConfig, err := config.NewJWTConfig()
		if err != nil {
			return fmt.Errorf("failed to create JWT config: %w", err)
		}
		opts = append(opts, server.WithAuth(server.NewJWTService(jwtConfig)))
	}

	srv, err := server.New(server.Config{
		Port:              cfg.Port,
		MaxConcurrentRuns: cfg.MaxRuns,
	}, a.pipeline, opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}

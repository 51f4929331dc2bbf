package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/podcast-planner/internal/arxiv"
	"github.com/jonathan/podcast-planner/internal/config"
	"github.com/jonathan/podcast-planner/internal/db"
	"github.com/jonathan/podcast-planner/internal/llm"
	"github.com/jonathan/podcast-planner/internal/observability"
	"github.com/jonathan/podcast-planner/internal/pipeline"
)

// commonFlags are shared by every command that runs the pipeline.
type commonFlags struct {
	configPath  string
	provider    string
	apiKey      string
	mode        string
	databaseURL string
	useBrowser  bool
	verbose     bool
}

func (f *commonFlags) register(cmd *cobra.Command) {
	// Config file flag (processed first)
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to a JSON or YAML config file (values can be overridden by other flags)")

	cmd.Flags().StringVar(&f.provider, "provider", "", "LLM provider: gemini or openai")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "Provider API key (optional, defaults to GEMINI_API_KEY or OPENAI_API_KEY)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Source mode: pdf (first pages of the paper) or abstract")
	cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	cmd.Flags().BoolVar(&f.useBrowser, "use-browser", false, "Fall back to a headless browser for the abstract page (requires Chrome)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed debug information")
}

// resolveConfig layers explicitly set flags over the environment, the config
// file and the built-in defaults.
func (f *commonFlags) resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("provider") {
		cfg.Provider = f.provider
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if cmd.Flags().Changed("mode") {
		cfg.SourceMode = f.mode
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = f.useBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = f.verbose
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// app holds the long-lived collaborators built from a resolved Config.
type app struct {
	cfg      config.Config
	client   llm.Client
	database *db.DB
	pipeline *pipeline.Pipeline
}

// newApp builds the LLM client, the optional run store and the pipeline.
// The API key is required up front so a misconfigured process fails before
// accepting work.
func newApp(ctx context.Context, cfg config.Config, verboseOut io.Writer) (*app, error) {
	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		return nil, err
	}

	llmCfg, err := cfg.LLMConfig()
	if err != nil {
		return nil, err
	}
	client, err := llm.NewClient(ctx, llmCfg, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	stageTimeout, err := cfg.StageTimeout()
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	a := &app{cfg: cfg, client: client}
	var opts []pipeline.Option

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			_ = client.Close()
			return nil, fmt.Errorf("failed to prepare database schema: %w", err)
		}
		a.database = database
		opts = append(opts, pipeline.WithStore(database))
	}

	if cfg.Verbose && verboseOut != nil {
		opts = append(opts, pipeline.WithPrinter(observability.NewPrinter(verboseOut)))
	}

	p, err := pipeline.New(pipeline.Config{StageTimeout: stageTimeout, Verbose: cfg.Verbose},
		arxiv.NewAcquirer(cfg.ArxivConfig()), client, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.pipeline = p
	return a, nil
}

// Close releases the LLM client and the database pool.
func (a *app) Close() {
	if a.database != nil {
		a.database.Close()
	}
	if a.client != nil {
		_ = a.client.Close()
	}
}

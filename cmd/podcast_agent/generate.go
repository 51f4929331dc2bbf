package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/podcast-planner/internal/arxiv"
	"github.com/jonathan/podcast-planner/internal/rendering"
	"github.com/jonathan/podcast-planner/internal/types"
)

// Output formats for generate.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

var (
	generateURLs   []string
	generateFormat string
	generateOut    string
	generateFlags  commonFlags
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create a podcast plan and script for one or more arXiv papers",
	Long: `Runs acquisition and the six generation stages: plan -> critique -> revise plan -> script -> critique -> revise script.

Pass --url more than once to process several papers; they run concurrently up to
max_concurrent_runs. With several URLs, --out names a directory.

Configuration can be loaded from a JSON or YAML file using --config. Command-line arguments override config file values.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringArrayVarP(&generateURLs, "url", "u", nil, "arXiv abstract or PDF URL (repeatable)")
	generateCmd.Flags().StringVarP(&generateFormat, "format", "f", FormatJSON, "Output format: json, markdown or html")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Output file (one URL) or directory (several URLs); stdout when empty")
	generateFlags.register(generateCmd)
	_ = generateCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if err := validateFormat(generateFormat); err != nil {
		return err
	}
	if len(generateURLs) > 1 && generateOut == "" {
		return fmt.Errorf("--out directory is required when more than one --url is given")
	}

	cfg, err := generateFlags.resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if len(generateURLs) == 1 {
		artifact, err := a.pipeline.Create(ctx, generateURLs[0])
		if err != nil {
			return err
		}
		if generateOut == "" {
			return writeArtifact(cmd.OutOrStdout(), artifact, generateFormat)
		}
		return writeArtifactFile(generateOut, artifact, generateFormat)
	}

	urls, err := uniquePaperURLs(generateURLs, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(generateOut, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.MaxRuns))
	for _, rawURL := range urls {
		g.Go(func() error {
			artifact, err := a.pipeline.Create(gctx, rawURL)
			if err != nil {
				return fmt.Errorf("%s: %w", rawURL, err)
			}
			path := filepath.Join(generateOut, outputName(artifact, generateFormat))
			if err := writeArtifactFile(path, artifact, generateFormat); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
			return nil
		})
	}
	return g.Wait()
}

// uniquePaperURLs drops URLs that resolve to an arXiv ID already listed, so
// concurrent runs never share an output file.
func uniquePaperURLs(urls []string, warn io.Writer) ([]string, error) {
	seen := make(map[string]string, len(urls))
	out := make([]string, 0, len(urls))
	for _, rawURL := range urls {
		id, err := arxiv.ParseID(rawURL)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[id]; dup {
			fmt.Fprintf(warn, "Skipping %s: same paper as %s\n", rawURL, first)
			continue
		}
		seen[id] = rawURL
		out = append(out, rawURL)
	}
	return out, nil
}

func validateFormat(format string) error {
	switch format {
	case FormatJSON, FormatMarkdown, FormatHTML:
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use json, markdown or html", format)
	}
}

// renderArtifact encodes the artifact in the requested format.
func renderArtifact(artifact *types.FinalPodcastArtifact, format string) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		md, err := rendering.ScriptMarkdown(artifact)
		return []byte(md), err
	case FormatHTML:
		page, err := rendering.ScriptHTML(artifact)
		return []byte(page), err
	case FormatJSON:
		data, err := json.MarshalIndent(artifact, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, validateFormat(format)
	}
}

func writeArtifact(w io.Writer, artifact *types.FinalPodcastArtifact, format string) error {
	data, err := renderArtifact(artifact, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func writeArtifactFile(path string, artifact *types.FinalPodcastArtifact, format string) error {
	data, err := renderArtifact(artifact, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// outputName derives a file name from the paper identifier, falling back to the run ID.
func outputName(artifact *types.FinalPodcastArtifact, format string) string {
	base := artifact.RunID
	if artifact.Source != nil && artifact.Source.ID != "" {
		base = arxiv.FileSafeID(artifact.Source.ID)
	}
	if base == "" {
		base = "podcast"
	}

	ext := map[string]string{FormatJSON: ".json", FormatMarkdown: ".md", FormatHTML: ".html"}[format]
	return strings.TrimSpace(base) + ext
}

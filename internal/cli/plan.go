package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tmarcher/scorebreak/pkg/pipeline"
	"github.com/tmarcher/scorebreak/pkg/plan/editorial"
)

// planCommand creates the plan command, the main entry point of the CLI:
// it reads a score, plans system and page breaks, and writes artifacts.
func (c *CLI) planCommand() *cobra.Command {
	var (
		output      string
		formatsStr  string
		constraints string
		backend     string
		noCache     bool
		interactive bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "plan [score file]",
		Short: "Plan system and page breaks for a score",
		Long: `Plan system and page breaks for a score.

The plan command reads a score file (JSON, TOML, or YAML) describing the
measure stacks, computes the optimal system breaks for the given line width,
allocates exact widths within each system, stacks the systems onto pages,
and renders the result in one or more formats.

An editorial constraints file (--constraints) can force or prevent breaks
and override individual stack widths.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			opts.Formats = parseFormats(formatsStr)
			if constraints != "" {
				cs, err := editorial.ReadConstraintsFile(constraints)
				if err != nil {
					return fmt.Errorf("load constraints %s: %w", constraints, err)
				}
				opts.Constraints = cs
			}
			if noCache {
				backend = CacheNone
			}
			return c.runPlan(cmd.Context(), opts, output, backend, interactive)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: input path without extension)")
	cmd.Flags().StringVar(&backend, "cache", CacheFile, "cache backend: file (default), redis (SCOREBREAK_REDIS_ADDR), none")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")

	// Planning flags
	cmd.Flags().StringVarP(&opts.Width, "width", "w", pipeline.DefaultWidth, "line width available to each system")
	cmd.Flags().StringVar(&opts.Indent, "indent", "", "extra indent applied to the first system")
	cmd.Flags().StringVar(&opts.PageHeight, "page-height", pipeline.DefaultPageHeight, "vertical space available on each page")
	cmd.Flags().StringVar(&opts.SystemHeight, "system-height", pipeline.DefaultSystemHeight, "ideal height of a system")
	cmd.Flags().StringVar(&opts.MinSystemHeight, "min-system-height", "", "minimum height a system may compress to (default: 3/4 of ideal)")
	cmd.Flags().BoolVar(&opts.FullScan, "full-scan", false, "disable early termination in the break search")
	cmd.Flags().StringVar(&constraints, "constraints", "", "editorial constraints file (JSON, TOML, or YAML)")

	// Rendering flags
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, graph (comma-separated)")
	cmd.Flags().StringVar(&opts.Theme, "theme", pipeline.DefaultTheme, "SVG theme: paper (default), ink")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "draw width labels on the SVG output")
	cmd.Flags().StringVar(&opts.Title, "title", "", "document title (default: input file name)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse the planned layout page by page")

	return cmd
}

// runPlan executes the pipeline and writes one artifact file per format.
func (c *CLI) runPlan(ctx context.Context, opts pipeline.Options, output, backend string, interactive bool) error {
	if opts.Title == "" {
		opts.Title = strings.TrimSuffix(filepath.Base(opts.Input), filepath.Ext(opts.Input))
	}

	runner, err := c.newRunner(ctx, backend)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Planning layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Planning failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := output
	if base == "" {
		base = strings.TrimSuffix(opts.Input, filepath.Ext(opts.Input))
	}

	printSuccess("Layout complete")
	for _, format := range opts.Formats {
		path := base + artifactExt(format)
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(result.Stats.StackCount, result.Stats.SystemCount, result.Stats.PageCount, result.CacheInfo.PlanHit)

	if interactive {
		printNewline()
		return browseDocument(result.Document)
	}
	return nil
}

// artifactExt maps a render format to its output file extension. The
// graph format is an SVG produced via Graphviz, so it keeps the .svg
// suffix with a marker.
func artifactExt(format string) string {
	switch format {
	case pipeline.FormatJSON:
		return ".json"
	case pipeline.FormatDOT:
		return ".dot"
	case pipeline.FormatGraph:
		return ".graph.svg"
	default:
		return ".svg"
	}
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tmarcher/scorebreak/pkg/cache"
	"github.com/tmarcher/scorebreak/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → plan → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		PlanID:    uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Parse
	parseStart := time.Now()
	stacks, scoreHash, parseHit, err := r.ParseWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Stacks = stacks
	result.ScoreHash = scoreHash
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.StackCount = len(stacks)
	result.CacheInfo.ParseHit = parseHit

	r.Logger.Info("parsed score",
		"stacks", len(stacks),
		"duration", result.Stats.ParseTime)

	// Stage 2: Plan
	planStart := time.Now()
	layout, planHit, err := r.PlanWithCacheInfo(ctx, stacks, scoreHash, opts)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	result.Systems = layout.Systems
	result.Pages = layout.Pages
	result.Allocations = layout.Allocations
	result.Stats.PlanTime = time.Since(planStart)
	result.Stats.SystemCount = len(layout.Systems.Ranges())
	result.Stats.PageCount = len(layout.Pages.Ranges())
	result.CacheInfo.PlanHit = planHit

	r.Logger.Info("planned layout",
		"systems", result.Stats.SystemCount,
		"pages", result.Stats.PageCount,
		"duration", result.Stats.PlanTime)

	doc, err := render.BuildDocument(stacks, layout.Systems, layout.Allocations,
		layout.Pages, opts.width, opts.pageHeight)
	if err != nil {
		return nil, fmt.Errorf("assemble document: %w", err)
	}
	doc.Title = opts.Title
	result.Document = doc

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, doc, layout, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

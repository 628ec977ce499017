// Package pipeline provides the core layout pipeline for Scorebreak.
//
// This package implements the complete parse → plan → render pipeline
// that can be used by CLI, API, and worker components. By centralizing
// this logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: Load measure-stack metrics from a score description file
//  2. Plan: Break stacks into systems, allocate widths, break systems
//     into pages
//  3. Render: Generate output in various formats (JSON, SVG, DOT)
//
// Each stage can be run independently or as part of the complete
// pipeline, and each stage caches its result keyed by a content hash of
// its inputs.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Input:   "score.json",
//	    Width:   "180",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tmarcher/scorebreak/pkg/cache"
	"github.com/tmarcher/scorebreak/pkg/plan"
	"github.com/tmarcher/scorebreak/pkg/plan/editorial"
	"github.com/tmarcher/scorebreak/pkg/render"
	"github.com/tmarcher/scorebreak/pkg/score"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Worker
// =============================================================================

const (
	// DefaultWidth is the default system width, in layout units.
	DefaultWidth = "180"

	// DefaultPageHeight is the default page height, in layout units.
	DefaultPageHeight = "260"

	// DefaultSystemHeight is the default ideal height of one system.
	DefaultSystemHeight = "20"

	// DefaultTheme is the default SVG color theme.
	DefaultTheme = "paper"
)

// Format constants for output formats.
const (
	FormatJSON  = "json"
	FormatSVG   = "svg"
	FormatDOT   = "dot"
	FormatGraph = "graph"
)

// ValidFormats is the set of supported output formats. "graph" is the
// plan-structure DOT graph rendered to SVG via Graphviz.
var ValidFormats = map[string]bool{
	FormatJSON:  true,
	FormatSVG:   true,
	FormatDOT:   true,
	FormatGraph: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Input options
	Input  string `json:"input,omitempty"`
	Source []byte `json:"source,omitempty"`
	Format string `json:"format,omitempty"`
	Title  string `json:"title,omitempty"`

	// Planning options. Dimensions are exact rational strings
	// ("180", "3/2", "1.25").
	Width           string `json:"width,omitempty"`
	Indent          string `json:"indent,omitempty"`
	PageHeight      string `json:"page_height,omitempty"`
	SystemHeight    string `json:"system_height,omitempty"`
	MinSystemHeight string `json:"min_system_height,omitempty"`
	FullScan        bool   `json:"full_scan,omitempty"`
	Refresh         bool   `json:"refresh,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Theme   string   `json:"theme,omitempty"`
	Labels  bool     `json:"labels,omitempty"`

	// Runtime options (not serialized)
	Constraints editorial.Constraints `json:"-"`
	Penalty     plan.PenaltyFunc      `json:"-"`
	Logger      *log.Logger           `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`

	// Parsed planning dimensions, populated by ValidateForPlan.
	width      *big.Rat
	indent     *big.Rat
	pageHeight *big.Rat
	sysIdeal   *big.Rat
	sysMin     *big.Rat
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// PlanID uniquely identifies this pipeline run.
	PlanID string

	// Stacks is the parsed measure-stack sequence.
	Stacks []score.MeasureStack

	// ScoreHash is the content hash of the canonical stack encoding.
	ScoreHash string

	// Systems is the system break plan; Pages is the page break plan.
	Systems *plan.Plan
	Pages   *plan.Plan

	// Allocations holds one width allocation per system.
	Allocations []*plan.Allocation

	// Document is the assembled renderable layout.
	Document *render.Document

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	StackCount  int
	SystemCount int
	PageCount   int
	ParseTime   time.Duration
	PlanTime    time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ParseHit  bool // Whether the parsed score came from cache
	PlanHit   bool // Whether both break plans came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, svg, dot, graph)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTheme checks that a theme is valid.
func ValidateTheme(theme string) error {
	if _, ok := render.Themes[theme]; !ok {
		return fmt.Errorf("invalid theme: %q (must be one of: paper, ink)", theme)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	if err := o.ValidateForPlan(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks required fields for score loading.
func (o *Options) ValidateForParse() error {
	if o.Input == "" && len(o.Source) == 0 {
		return fmt.Errorf("input path or source is required")
	}
	if len(o.Source) > 0 && o.Format == "" {
		return fmt.Errorf("format is required with raw source")
	}
	if o.Format == "" {
		format, err := score.FormatFromPath(o.Input)
		if err != nil {
			return err
		}
		o.Format = format
	}
	o.setLoggerDefault()
	return nil
}

// ValidateForPlan parses the planning dimensions and applies defaults.
func (o *Options) ValidateForPlan() error {
	if o.Width == "" {
		o.Width = DefaultWidth
	}
	if o.PageHeight == "" {
		o.PageHeight = DefaultPageHeight
	}
	if o.SystemHeight == "" {
		o.SystemHeight = DefaultSystemHeight
	}

	var err error
	if o.width, err = score.ParseRat(o.Width); err != nil {
		return fmt.Errorf("width: %w", err)
	}
	if o.Indent != "" {
		if o.indent, err = score.ParseRat(o.Indent); err != nil {
			return fmt.Errorf("indent: %w", err)
		}
	}
	if o.pageHeight, err = score.ParseRat(o.PageHeight); err != nil {
		return fmt.Errorf("page_height: %w", err)
	}
	if o.sysIdeal, err = score.ParseRat(o.SystemHeight); err != nil {
		return fmt.Errorf("system_height: %w", err)
	}
	if o.MinSystemHeight != "" {
		if o.sysMin, err = score.ParseRat(o.MinSystemHeight); err != nil {
			return fmt.Errorf("min_system_height: %w", err)
		}
	} else {
		// Systems compress to three quarters of their ideal height
		// before a page is considered overfull.
		o.sysMin = new(big.Rat).Mul(o.sysIdeal, big.NewRat(3, 4))
	}
	o.setLoggerDefault()
	return nil
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	o.setLoggerDefault()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateTheme(o.Theme)
}

func (o *Options) setLoggerDefault() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SystemPolicy returns the width policy for the system pass.
// ValidateForPlan must have run.
func (o *Options) SystemPolicy() plan.Policy {
	if o.indent != nil && o.indent.Sign() != 0 {
		return plan.IndentedFirstSystem(o.width, o.indent)
	}
	return plan.ConstantWidth(o.width)
}

// PagePolicy returns the height policy for the page pass.
func (o *Options) PagePolicy() plan.Policy {
	return plan.ConstantWidth(o.pageHeight)
}

// PlanOptions returns the planner options implied by the configuration.
func (o *Options) PlanOptions() []plan.Option {
	var opts []plan.Option
	if o.FullScan {
		opts = append(opts, plan.WithoutEarlyTermination())
	}
	if o.Penalty != nil {
		opts = append(opts, plan.WithBreakPenalty(o.Penalty))
	}
	return opts
}

// PlanKeyOpts returns cache key options for the planning stage.
func (o *Options) PlanKeyOpts() cache.PlanKeyOpts {
	return cache.PlanKeyOpts{
		Pass:            "systems+pages",
		Width:           o.Width,
		Indent:          o.Indent,
		PageHeight:      o.PageHeight,
		SystemHeight:    o.SystemHeight,
		MinSystemHeight: o.MinSystemHeight,
		ConstraintsHash: o.constraintsHash(),
		FullScan:        o.FullScan,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	theme := o.Theme
	if o.Labels {
		theme += "+labels"
	}
	return cache.ArtifactKeyOpts{
		Format: format,
		Theme:  theme,
	}
}

// constraintsHash fingerprints the editorial constraints, or returns ""
// when none apply or they cannot be hashed. JSON encoding sorts map
// keys, so the hash is deterministic.
func (o *Options) constraintsHash() string {
	if o.Constraints.Empty() {
		return ""
	}
	data, err := marshalConstraints(o.Constraints)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// planCacheable reports whether the planning stage may use the cache.
// Penalty functions cannot be fingerprinted, and constraints that fail
// to hash must not share the unconstrained key.
func (o *Options) planCacheable() bool {
	if o.Penalty != nil {
		return false
	}
	if !o.Constraints.Empty() && o.constraintsHash() == "" {
		return false
	}
	return true
}

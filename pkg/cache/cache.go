// Package cache provides content-addressed caching for the planning
// pipeline. Parsed scores, break plans, and rendered artifacts are keyed
// by hashes of their inputs, so a changed score or policy never serves a
// stale entry.
package cache

import (
	"context"
	"time"
)

// TTLs per pipeline stage. Entries are content-addressed, which makes
// long TTLs safe: any input change produces a different key.
const (
	// TTLScore is the TTL for parsed measure-stack sequences.
	TTLScore = 24 * time.Hour

	// TTLPlan is the TTL for computed break plans.
	TTLPlan = 7 * 24 * time.Hour

	// TTLArtifact is the TTL for rendered outputs.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
//
// Get returns (nil, false, nil) on a miss; errors are reserved for
// backend failures. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// PlanKeyOpts captures every knob that influences a break plan, so that
// two runs with different planning inputs never share a cache entry.
type PlanKeyOpts struct {
	// Pass distinguishes the system pass from the page pass.
	Pass string

	// Width and Indent are the system-pass policy parameters, as exact
	// rational strings.
	Width  string
	Indent string

	// PageHeight, SystemHeight, and MinSystemHeight are the page-pass
	// parameters, as exact rational strings.
	PageHeight      string
	SystemHeight    string
	MinSystemHeight string

	// ConstraintsHash fingerprints the editorial constraints, or is
	// empty when none apply.
	ConstraintsHash string

	// FullScan is set when early termination is disabled.
	FullScan bool
}

// ArtifactKeyOpts captures rendering parameters.
type ArtifactKeyOpts struct {
	Format string
	Theme  string
}

// Keyer generates cache keys for the pipeline stages. Implementations
// must be deterministic: equal inputs yield equal keys across runs.
type Keyer interface {
	// ScoreKey keys a parsed stack sequence by input format and the
	// hash of the raw score bytes.
	ScoreKey(format, contentHash string) string

	// PlanKey keys a break plan by the hash of the parsed score and
	// the planning options.
	PlanKey(scoreHash string, opts PlanKeyOpts) string

	// ArtifactKey keys a rendered output by the hash of the plan it
	// was rendered from and the rendering options.
	ArtifactKey(planHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard Keyer. Score keys stay human-readable
// for debugging; plan and artifact keys hash their option structs.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ScoreKey generates a key for a parsed score.
func (k *DefaultKeyer) ScoreKey(format, contentHash string) string {
	return "score:" + format + ":" + contentHash
}

// PlanKey generates a key for a break plan.
func (k *DefaultKeyer) PlanKey(scoreHash string, opts PlanKeyOpts) string {
	return hashKey("plan", scoreHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", planHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)

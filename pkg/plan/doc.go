// Package plan implements the measure-distribution core: globally optimal
// system and page breaking over a sequence of measure stacks, plus the
// proportional width allocation for each chosen system.
//
// # Architecture
//
// The package is a pure computational library. Three passes run in strict
// order, never interleaved:
//
//  1. Break: forward dynamic programming over the stack sequence selects
//     optimal system boundaries under a caller-supplied width policy.
//  2. Allocate: a closed-form proportional scaling converts each chosen
//     system into exact per-stack widths.
//  3. BreakPages: the same dynamic program applied to the finished
//     systems, using heights instead of widths and no gutter.
//
// All arithmetic is exact (math/big.Rat). Determinism is a contract:
// planning the same input twice yields byte-identical results, which the
// incremental LayoutCache relies on to detect convergence after edits.
//
// # Cost model
//
// A segment [s, t) laid out at uniform scale factor k costs
//
//	(k − 1)² × Σ ideal_i²
//
// plus an optional caller-supplied break penalty. The cost function is a
// pluggable interface point ([CostFunc]); the symmetric quadratic above
// is the required baseline. Ties between equal-cost configurations are
// broken deterministically by updating only on strict improvement while
// the inner scan walks candidate break points from t−1 down to 0.
//
// # Feasibility
//
// A segment is admitted only when the available width covers every
// minimum (necessary) and the uniform scale satisfies every stack's
// min/ideal ratio (sufficient). The sufficient check guarantees the
// allocator's defensive clamp never fires. When no segmentation exists,
// Break fails with an INFEASIBLE error citing the first stack whose
// minimum exceeds every capacity offered to it.
//
// # Concurrency
//
// Break, Allocate, and BreakPages are pure, synchronous functions over
// immutable snapshots; they hold no internal state and need no locking.
// The LayoutCache is an explicit caller-owned object so independent
// layout computations cannot interfere.
package plan

// Package score defines the measure-stack data model consumed by the
// break planner.
//
// A measure stack is the vertical alignment of all staves at one temporal
// position, the atomic unit of horizontal layout. Each stack carries
// three exact rational widths produced upstream from collision detection
// and glyph metrics:
//
//   - Min: the hard lower bound below which elements inside the stack
//     would overlap
//   - Ideal: the proportional target width reflecting content density
//   - Gutter: fixed extra space reserved before the stack when it opens
//     a new system (clefs, key signatures, and similar decorations)
//
// All widths are arbitrary-precision rationals (math/big.Rat). Exactness
// is a load-bearing invariant of the planner, not a stylistic choice:
// the allocator must satisfy gutter + Σ actual == systemWidth by exact
// rational equality, and the planner's determinism depends on it.
//
// Stacks are treated as immutable once produced. When the musical content
// at a position changes, the upstream stage replaces the stack wholesale
// rather than mutating it in place.
//
// The package also provides loaders for stack sequences in JSON, TOML,
// and YAML, with rationals encoded as strings ("3/2", "4", "1.25").
package score

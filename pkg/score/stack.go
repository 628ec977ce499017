package score

import (
	"math/big"

	"github.com/tmarcher/scorebreak/pkg/errors"
)

// MeasureStack is one temporal position across all staves, with the
// widths the upstream metrics stage derived for it. Instances are value
// objects: the planner never mutates them, and callers replace them
// wholesale when the underlying musical content changes.
type MeasureStack struct {
	// Min is the hard lower bound on rendered width. Must be > 0.
	Min *big.Rat

	// Ideal is the proportional target width. Must be >= Min.
	Ideal *big.Rat

	// Gutter is extra fixed width reserved only when this stack opens a
	// new system. Must be >= 0. A nil Gutter is treated as zero.
	Gutter *big.Rat

	// Index is the stack's position in the original sequence. It survives
	// editorial grouping so plans always refer to original positions.
	Index int
}

// NewStack builds a stack with the given widths. A nil gutter becomes zero.
func NewStack(index int, min, ideal, gutter *big.Rat) MeasureStack {
	if gutter == nil {
		gutter = new(big.Rat)
	}
	return MeasureStack{Min: min, Ideal: ideal, Gutter: gutter, Index: index}
}

// GutterOrZero returns the stack's gutter, treating nil as zero.
func (s MeasureStack) GutterOrZero() *big.Rat {
	if s.Gutter == nil {
		return new(big.Rat)
	}
	return s.Gutter
}

// Validate checks the stack invariants: min > 0, min <= ideal, gutter >= 0.
func (s MeasureStack) Validate() error {
	if s.Min == nil || s.Ideal == nil {
		return errors.New(errors.ErrCodeInvalidStack, "stack %d: missing min or ideal width", s.Index)
	}
	if s.Min.Sign() <= 0 {
		return errors.New(errors.ErrCodeInvalidStack, "stack %d: min width %s must be positive", s.Index, FormatRat(s.Min))
	}
	if s.Min.Cmp(s.Ideal) > 0 {
		return errors.New(errors.ErrCodeInvalidStack, "stack %d: min width %s exceeds ideal width %s",
			s.Index, FormatRat(s.Min), FormatRat(s.Ideal))
	}
	if s.Gutter != nil && s.Gutter.Sign() < 0 {
		return errors.New(errors.ErrCodeInvalidStack, "stack %d: gutter %s must be non-negative", s.Index, FormatRat(s.Gutter))
	}
	return nil
}

// ValidateStacks checks every stack in the sequence and that indices are
// consistent with sequence order. It rejects at the call boundary so the
// planner never sees malformed input.
func ValidateStacks(stacks []MeasureStack) error {
	for i, s := range stacks {
		if err := s.Validate(); err != nil {
			return err
		}
		if s.Index != i {
			return errors.New(errors.ErrCodeInvalidStack, "stack at position %d carries index %d", i, s.Index)
		}
	}
	return nil
}

// SumMin returns Σ min over stacks[lo:hi].
func SumMin(stacks []MeasureStack, lo, hi int) *big.Rat {
	sum := new(big.Rat)
	for _, s := range stacks[lo:hi] {
		sum.Add(sum, s.Min)
	}
	return sum
}

// SumIdeal returns Σ ideal over stacks[lo:hi].
func SumIdeal(stacks []MeasureStack, lo, hi int) *big.Rat {
	sum := new(big.Rat)
	for _, s := range stacks[lo:hi] {
		sum.Add(sum, s.Ideal)
	}
	return sum
}

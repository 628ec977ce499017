package plan

import (
	"math/big"

	"github.com/tmarcher/scorebreak/pkg/errors"
	"github.com/tmarcher/scorebreak/pkg/score"
)

// Allocation is the exact width assignment for one system: the reserved
// gutter, the uniform scale factor, and one actual width per stack, with
// Gutter + Σ Actuals equal to the system width by exact rational equality.
type Allocation struct {
	Gutter  *big.Rat
	Scale   *big.Rat
	Actuals []*big.Rat

	clamped bool
}

// Clamped reports whether the defensive minimum-width clamp changed any
// value. Under the planner's sufficient-feasibility check this must never
// happen; tests assert it stays false.
func (a *Allocation) Clamped() bool { return a.clamped }

// Sum returns Gutter + Σ Actuals.
func (a *Allocation) Sum() *big.Rat {
	sum := new(big.Rat).Set(a.Gutter)
	for _, w := range a.Actuals {
		sum.Add(sum, w)
	}
	return sum
}

// Allocate distributes systemWidth across the stacks of one system.
//
// This is normalization, not search: the gutter of the opening stack is
// reserved, the remainder is split in proportion to ideal widths via a
// single uniform scale factor, and no iteration or convergence is
// involved. The per-stack clamp to the minimum width is purely defensive;
// the planner's sufficient-feasibility check guarantees it never fires
// for systems it selected.
func Allocate(stacks []score.MeasureStack, systemWidth *big.Rat) (*Allocation, error) {
	if len(stacks) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no stacks to allocate")
	}
	if systemWidth == nil || systemWidth.Sign() <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidPolicy, "system width must be positive")
	}
	for _, s := range stacks {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	gutter := new(big.Rat).Set(stacks[0].GutterOrZero())
	avail := new(big.Rat).Sub(systemWidth, gutter)
	if avail.Sign() <= 0 {
		return nil, errors.New(errors.ErrCodeInfeasible,
			"gutter %s leaves no width in system of width %s", score.FormatRat(gutter), score.FormatRat(systemWidth))
	}

	scale := new(big.Rat).Quo(avail, score.SumIdeal(stacks, 0, len(stacks)))

	alloc := &Allocation{
		Gutter:  gutter,
		Scale:   scale,
		Actuals: make([]*big.Rat, len(stacks)),
	}
	for i, s := range stacks {
		actual := new(big.Rat).Mul(s.Ideal, scale)
		if actual.Cmp(s.Min) < 0 {
			actual.Set(s.Min)
			alloc.clamped = true
		}
		alloc.Actuals[i] = actual
	}
	return alloc, nil
}

package plan

import (
	"math/big"

	"github.com/tmarcher/scorebreak/pkg/errors"
	"github.com/tmarcher/scorebreak/pkg/score"
)

// Reflow re-plans the stack range [lo, hi), extended outward to the
// nearest system boundaries of p, and splices the result into a new plan.
//
// This is the one sanctioned escape hatch for the downstream renderer:
// when it detects a geometric impossibility (an unavoidable collision of
// connecting elements, for example) it may restart this bounded
// sub-problem with adjusted stack metrics. It is a restart, not a
// feedback loop: it must not run during normal planning, and callers
// should cache results to avoid repeated recomputation.
//
// The plans before and after the window are untouched; the returned
// plan's cost is recomputed exactly over the final segmentation.
func Reflow(p *Plan, stacks []score.MeasureStack, lo, hi int, policy Policy, opts ...Option) (*Plan, error) {
	if p == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil plan")
	}
	if len(stacks) != p.Len {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"plan covers %d stacks, got %d", p.Len, len(stacks))
	}
	if err := errors.ValidateHalfOpenRange(lo, hi, p.Len); err != nil {
		return nil, err
	}
	for _, s := range stacks {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	cfg := newConfig(opts)

	sb, eb := enclosingBoundaries(p, lo, hi)
	window, err := replanWindow(stacks, sb, eb, policy, cfg)
	if err != nil {
		return nil, err
	}

	out := &Plan{Len: p.Len}
	for _, b := range p.Breaks {
		if b < sb {
			out.Breaks = append(out.Breaks, b)
		}
	}
	if sb != 0 {
		out.Breaks = append(out.Breaks, sb)
	}
	out.Breaks = append(out.Breaks, window.Breaks...)
	if eb != p.Len && !containsInt(out.Breaks, eb) {
		out.Breaks = append(out.Breaks, eb)
	}
	for _, b := range p.Breaks {
		if b > eb {
			out.Breaks = append(out.Breaks, b)
		}
	}

	cost, err := totalCost(stacks, out.Ranges(), policy, cfg)
	if err != nil {
		return nil, err
	}
	out.Cost = cost
	return out, nil
}

// Window returns the nearest plan boundaries enclosing [lo, hi): the
// largest boundary at or below lo and the smallest at or above hi.
// Reflow replans exactly this window.
func (p *Plan) Window(lo, hi int) (int, int) {
	return enclosingBoundaries(p, lo, hi)
}

// enclosingBoundaries returns the nearest plan boundaries enclosing
// [lo, hi): the largest boundary <= lo and the smallest boundary >= hi.
func enclosingBoundaries(p *Plan, lo, hi int) (int, int) {
	sb, eb := 0, p.Len
	for _, b := range p.Breaks {
		if b <= lo && b > sb {
			sb = b
		}
		if b >= hi && b < eb {
			eb = b
		}
	}
	return sb, eb
}

// replanWindow runs the break pass over stacks[sb:eb] with the policy
// shifted back into original index space. Breaks in the result are in
// original indices.
func replanWindow(stacks []score.MeasureStack, sb, eb int, policy Policy, cfg config) (*Plan, error) {
	shifted := Policy(func(s, t int) *big.Rat {
		return policy(s+sb, t+sb)
	})
	window, err := breakDP(stacks[sb:eb], shifted, cfg)
	if err != nil {
		return nil, err
	}
	out := &Plan{Cost: window.Cost, Len: eb - sb}
	for _, b := range window.Breaks {
		out.Breaks = append(out.Breaks, b+sb)
	}
	return out, nil
}

// totalCost sums the exact segment costs of a full segmentation.
func totalCost(stacks []score.MeasureStack, ranges [][2]int, policy Policy, cfg config) (*big.Rat, error) {
	total := new(big.Rat)
	for _, r := range ranges {
		c, err := segmentCost(stacks, r[0], r[1], policy, cfg)
		if err != nil {
			return nil, err
		}
		total.Add(total, c)
	}
	return total, nil
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

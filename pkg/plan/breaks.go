package plan

import (
	"math/big"

	"github.com/tmarcher/scorebreak/pkg/errors"
	"github.com/tmarcher/scorebreak/pkg/score"
)

// Plan is the output of a break pass over a sequence of length Len:
// the interior break points (ascending, exclusive of 0 and Len) and the
// exact total cost of the chosen segmentation.
type Plan struct {
	Breaks []int
	Cost   *big.Rat
	Len    int
}

// Ranges expands the plan into half-open [start, end) segments covering
// the whole sequence.
func (p *Plan) Ranges() [][2]int {
	bounds := p.Boundaries()
	ranges := make([][2]int, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		ranges = append(ranges, [2]int{bounds[i], bounds[i+1]})
	}
	return ranges
}

// Boundaries returns the plan's boundary list including 0 and Len.
func (p *Plan) Boundaries() []int {
	bounds := make([]int, 0, len(p.Breaks)+2)
	bounds = append(bounds, 0)
	bounds = append(bounds, p.Breaks...)
	bounds = append(bounds, p.Len)
	return bounds
}

// HasBreak reports whether k is a segment boundary of the plan.
func (p *Plan) HasBreak(k int) bool {
	if k == 0 || k == p.Len {
		return true
	}
	for _, b := range p.Breaks {
		if b == k {
			return true
		}
	}
	return false
}

// Option configures a break pass.
type Option func(*config)

type config struct {
	cost      CostFunc
	penalty   PenaltyFunc
	earlyTerm bool
}

func newConfig(opts []Option) config {
	cfg := config{cost: QuadraticCost, earlyTerm: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithCost replaces the default quadratic segment cost.
func WithCost(fn CostFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.cost = fn
		}
	}
}

// WithBreakPenalty adds a soft editorial penalty to every candidate
// segment's cost.
func WithBreakPenalty(fn PenaltyFunc) Option {
	return func(c *config) { c.penalty = fn }
}

// WithoutEarlyTermination disables the monotone-policy optimization and
// scans every candidate break point. Required for policies that are not
// non-increasing as s decreases.
func WithoutEarlyTermination() Option {
	return func(c *config) { c.earlyTerm = false }
}

// Break selects optimal system boundaries over stacks under policy.
//
// The planner is a forward dynamic program over prefix length t. For each
// t it scans candidate previous break points s from t−1 down to 0,
// admitting a segment [s, t) only if the available width (policy minus
// the opening stack's gutter) covers the segment's minimum widths and the
// resulting uniform scale satisfies every stack's min/ideal ratio. The
// cheapest reachable segmentation wins; ties keep the first candidate
// found (strict-improvement updates), which makes the result fully
// deterministic.
//
// Break is pure: it never mutates stacks and holds no state between
// calls. Errors:
//   - INVALID_STACK if a stack violates its invariants
//   - INVALID_POLICY if the policy returns a nil or non-positive capacity
//   - INFEASIBLE if no segmentation covers the sequence, citing the first
//     stack whose minimum exceeds every capacity offered to it
func Break(stacks []score.MeasureStack, policy Policy, opts ...Option) (*Plan, error) {
	if len(stacks) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no stacks to plan")
	}
	if policy == nil {
		return nil, errors.New(errors.ErrCodeInvalidPolicy, "nil policy")
	}
	for _, s := range stacks {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	cfg := newConfig(opts)
	return breakDP(stacks, policy, cfg)
}

func breakDP(stacks []score.MeasureStack, policy Policy, cfg config) (*Plan, error) {
	n := len(stacks)

	// best[t] is the minimum cost covering the first t stacks; nil marks
	// unreachable. Rationals stay exact throughout; no float sentinel.
	best := make([]*big.Rat, n+1)
	prev := make([]int, n+1)
	best[0] = new(big.Rat)

	// Scratch values reused across candidates.
	avail := new(big.Rat)
	scale := new(big.Rat)
	ratio := new(big.Rat)

	for t := 1; t <= n; t++ {
		// Running sums over [s, t) while s decreases.
		sumMin := new(big.Rat)
		sumIdeal := new(big.Rat)
		maxRatio := new(big.Rat)

		for s := t - 1; s >= 0; s-- {
			sumMin.Add(sumMin, stacks[s].Min)
			sumIdeal.Add(sumIdeal, stacks[s].Ideal)
			ratio.Quo(stacks[s].Min, stacks[s].Ideal)
			if ratio.Cmp(maxRatio) > 0 {
				maxRatio.Set(ratio)
			}

			capacity := policy(s, t)
			if capacity == nil || capacity.Sign() <= 0 {
				return nil, errors.New(errors.ErrCodeInvalidPolicy,
					"policy returned non-positive capacity for segment [%d, %d)", s, t)
			}
			avail.Sub(capacity, stacks[s].GutterOrZero())

			// Necessary feasibility. Under a monotone policy, once the
			// minimums no longer fit they never will again for smaller s.
			if sumMin.Cmp(avail) > 0 {
				if cfg.earlyTerm {
					break
				}
				continue
			}

			// Sufficient feasibility: the uniform scale must not push any
			// stack below its minimum, so the allocator never clamps.
			scale.Quo(avail, sumIdeal)
			if scale.Cmp(maxRatio) < 0 {
				continue
			}

			if best[s] == nil {
				continue
			}

			cost := new(big.Rat).Add(best[s], cfg.cost(stacks, s, t, scale))
			if cfg.penalty != nil {
				if p := cfg.penalty(stacks, s, t); p != nil {
					cost.Add(cost, p)
				}
			}
			if best[t] == nil || cost.Cmp(best[t]) < 0 {
				best[t] = cost
				prev[t] = s
			}
		}
	}

	if best[n] == nil {
		return nil, infeasible(stacks, policy)
	}

	// Reconstruct interior breaks by walking prev backward from n.
	var rev []int
	for t := n; t > 0; t = prev[t] {
		if s := prev[t]; s != 0 {
			rev = append(rev, s)
		}
	}
	breaks := make([]int, len(rev))
	for i, b := range rev {
		breaks[len(rev)-1-i] = b
	}

	return &Plan{Breaks: breaks, Cost: best[n], Len: n}, nil
}

// infeasible identifies the first stack whose minimum width exceeds the
// capacity offered to it even as a one-stack system. At least one such
// stack must exist: if every singleton fit, the all-singletons
// segmentation would have been reachable.
func infeasible(stacks []score.MeasureStack, policy Policy) error {
	avail := new(big.Rat)
	for i, s := range stacks {
		capacity := policy(i, i+1)
		if capacity == nil {
			return &errors.InfeasibleError{StackIndex: s.Index}
		}
		avail.Sub(capacity, s.GutterOrZero())
		if s.Min.Cmp(avail) > 0 {
			return &errors.InfeasibleError{StackIndex: s.Index}
		}
	}
	// Unreachable for well-formed inputs; report the first stack rather
	// than returning a malformed plan.
	return &errors.InfeasibleError{StackIndex: stacks[0].Index}
}

// segmentCost recomputes the cost of laying out stacks[s:t] under policy,
// using the same feasibility rules as the DP. Used by reflow splicing to
// keep plan costs exact without re-running the full pass.
func segmentCost(stacks []score.MeasureStack, s, t int, policy Policy, cfg config) (*big.Rat, error) {
	capacity := policy(s, t)
	if capacity == nil || capacity.Sign() <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidPolicy,
			"policy returned non-positive capacity for segment [%d, %d)", s, t)
	}
	avail := new(big.Rat).Sub(capacity, stacks[s].GutterOrZero())
	sumIdeal := score.SumIdeal(stacks, s, t)
	scale := new(big.Rat).Quo(avail, sumIdeal)

	cost := cfg.cost(stacks, s, t, scale)
	if cfg.penalty != nil {
		if p := cfg.penalty(stacks, s, t); p != nil {
			cost = new(big.Rat).Add(cost, p)
		}
	}
	return cost, nil
}

package plan

import (
	"github.com/tmarcher/scorebreak/pkg/errors"
	"github.com/tmarcher/scorebreak/pkg/score"
)

// LayoutCache carries planning state across invocations so that upstream
// edits recompute as little as possible. It stores the last-seen stack
// metrics, the current plan, and one allocation per system.
//
// The cache is an explicit object owned by the caller, never a package
// singleton, so independent layout computations (separate documents,
// say) cannot interfere. It is not safe for concurrent use.
type LayoutCache struct {
	policy Policy
	opts   []Option

	stacks []score.MeasureStack
	plan   *Plan
	allocs []*Allocation
}

// UpdateStats describes how much work an Update performed.
type UpdateStats struct {
	// Replanned is false when the edit preserved system membership and
	// only the touched systems' widths were recomputed.
	Replanned bool

	// FromBoundary is the nearest unaffected system boundary the replan
	// started at. Zero when Replanned is false.
	FromBoundary int

	// ConvergedAt is the boundary where the recomputed break sequence
	// rejoined the cached suffix, or -1 if it never did. Zero when
	// Replanned is false.
	ConvergedAt int

	// Reallocated counts systems whose widths were recomputed.
	Reallocated int
}

// NewLayoutCache creates a cache that plans with the given policy and
// options. Call Plan to populate it.
func NewLayoutCache(policy Policy, opts ...Option) *LayoutCache {
	return &LayoutCache{policy: policy, opts: opts}
}

// Plan computes the full layout for stacks and caches the per-stack
// metrics and per-system allocations.
func (c *LayoutCache) Plan(stacks []score.MeasureStack) (*Plan, error) {
	p, err := Break(stacks, c.policy, c.opts...)
	if err != nil {
		return nil, err
	}
	allocs, err := c.allocateAll(stacks, p, nil, nil)
	if err != nil {
		return nil, err
	}

	c.stacks = make([]score.MeasureStack, len(stacks))
	copy(c.stacks, stacks)
	c.plan = p
	c.allocs = allocs
	return p, nil
}

// Current returns the cached plan, or nil before the first Plan call.
func (c *LayoutCache) Current() *Plan { return c.plan }

// Allocations returns the cached per-system allocations in plan order.
func (c *LayoutCache) Allocations() []*Allocation { return c.allocs }

// Stacks returns the cached metrics snapshot.
func (c *LayoutCache) Stacks() []score.MeasureStack { return c.stacks }

// Update replaces the metrics for stacks[lo:hi) with repl and recomputes
// the cached layout, preferring the cheap path:
//
//   - If re-planning the window between the enclosing system boundaries
//     reproduces the cached breaks, membership is unchanged: only the
//     allocations of systems touching [lo, hi) are recomputed.
//   - Otherwise the planner re-runs from the nearest unaffected boundary
//     onward. Determinism makes the recomputed break sequence converge
//     back onto the cached suffix, detected by direct comparison, and
//     allocations beyond the convergence point are reused.
func (c *LayoutCache) Update(lo, hi int, repl []score.MeasureStack) (UpdateStats, error) {
	var stats UpdateStats
	if c.plan == nil {
		return stats, errors.New(errors.ErrCodeInvalidInput, "cache has no plan; call Plan first")
	}
	if err := errors.ValidateHalfOpenRange(lo, hi, len(c.stacks)); err != nil {
		return stats, err
	}
	if len(repl) != hi-lo {
		return stats, errors.New(errors.ErrCodeInvalidInput,
			"replacement length %d does not match range [%d, %d)", len(repl), lo, hi)
	}
	for i, s := range repl {
		if err := s.Validate(); err != nil {
			return stats, err
		}
		if s.Index != lo+i {
			return stats, errors.New(errors.ErrCodeInvalidStack,
				"replacement at position %d carries index %d", lo+i, s.Index)
		}
	}

	next := make([]score.MeasureStack, len(c.stacks))
	copy(next, c.stacks)
	copy(next[lo:hi], repl)

	cfg := newConfig(c.opts)
	sb, eb := enclosingBoundaries(c.plan, lo, hi)

	// Cheap path: re-plan only the enclosed window. If its breaks match
	// the cached ones, membership is preserved.
	window, err := replanWindow(next, sb, eb, c.policy, cfg)
	if err == nil && equalInts(window.Breaks, breaksWithin(c.plan.Breaks, sb, eb)) {
		reallocated, aerr := c.refreshAllocations(next, c.plan, lo, hi)
		if aerr != nil {
			return stats, aerr
		}
		c.stacks = next
		stats.Reallocated = reallocated
		return stats, nil
	}

	// Membership changed (or the window became infeasible on its own):
	// re-run the planner from the nearest unaffected boundary onward.
	suffix, err := replanWindow(next, sb, len(next), c.policy, cfg)
	if err != nil {
		return stats, err
	}

	newPlan := &Plan{Len: len(next)}
	for _, b := range c.plan.Breaks {
		if b < sb {
			newPlan.Breaks = append(newPlan.Breaks, b)
		}
	}
	if sb != 0 {
		newPlan.Breaks = append(newPlan.Breaks, sb)
	}
	newPlan.Breaks = append(newPlan.Breaks, suffix.Breaks...)

	cost, err := totalCost(next, newPlan.Ranges(), c.policy, cfg)
	if err != nil {
		return stats, err
	}
	newPlan.Cost = cost

	stats.Replanned = true
	stats.FromBoundary = sb
	stats.ConvergedAt = convergencePoint(c.plan.Breaks, newPlan.Breaks, hi)

	allocs, err := c.allocateAll(next, newPlan, c.reusableAllocs(newPlan, lo, hi, stats.ConvergedAt), &stats)
	if err != nil {
		return stats, err
	}

	c.stacks = next
	c.plan = newPlan
	c.allocs = allocs
	return stats, nil
}

// refreshAllocations recomputes allocations for systems intersecting
// [lo, hi), keeping all others. Returns the number recomputed.
func (c *LayoutCache) refreshAllocations(stacks []score.MeasureStack, p *Plan, lo, hi int) (int, error) {
	count := 0
	for i, r := range p.Ranges() {
		if r[1] <= lo || r[0] >= hi {
			continue
		}
		alloc, err := Allocate(stacks[r[0]:r[1]], c.policy(r[0], r[1]))
		if err != nil {
			return count, err
		}
		c.allocs[i] = alloc
		count++
	}
	return count, nil
}

// reusableAllocs maps system start index -> cached allocation for systems
// that survived the replan untouched: entirely before the replan window's
// edit, or entirely past the convergence point.
func (c *LayoutCache) reusableAllocs(newPlan *Plan, lo, hi, convergedAt int) map[int]*Allocation {
	reuse := make(map[int]*Allocation)
	oldRanges := c.plan.Ranges()
	for i, r := range oldRanges {
		if i >= len(c.allocs) {
			break
		}
		untouched := r[1] <= lo || (convergedAt >= 0 && r[0] >= convergedAt && r[0] >= hi)
		if untouched {
			reuse[r[0]] = c.allocs[i]
		}
	}
	return reuse
}

// allocateAll produces one allocation per system of p, reusing entries
// from reuse when the system start matches. When stats is non-nil it
// counts recomputed systems.
func (c *LayoutCache) allocateAll(stacks []score.MeasureStack, p *Plan, reuse map[int]*Allocation, stats *UpdateStats) ([]*Allocation, error) {
	ranges := p.Ranges()
	allocs := make([]*Allocation, len(ranges))
	for i, r := range ranges {
		if cached, ok := reuse[r[0]]; ok && cached != nil && len(cached.Actuals) == r[1]-r[0] {
			allocs[i] = cached
			continue
		}
		alloc, err := Allocate(stacks[r[0]:r[1]], c.policy(r[0], r[1]))
		if err != nil {
			return nil, err
		}
		allocs[i] = alloc
		if stats != nil {
			stats.Reallocated++
		}
	}
	return allocs, nil
}

// breaksWithin filters interior breaks to the open window (sb, eb).
func breaksWithin(breaks []int, sb, eb int) []int {
	var out []int
	for _, b := range breaks {
		if b > sb && b < eb {
			out = append(out, b)
		}
	}
	return out
}

// convergencePoint finds the smallest boundary >= hi present in both
// break sequences whose tails agree from that point on, or -1.
func convergencePoint(oldBreaks, newBreaks []int, hi int) int {
	for i, b := range newBreaks {
		if b < hi || !containsInt(oldBreaks, b) {
			continue
		}
		j := indexOf(oldBreaks, b)
		if equalInts(newBreaks[i:], oldBreaks[j:]) {
			return b
		}
	}
	return -1
}

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

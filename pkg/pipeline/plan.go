package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/tmarcher/scorebreak/pkg/cache"
	"github.com/tmarcher/scorebreak/pkg/errors"
	"github.com/tmarcher/scorebreak/pkg/observability"
	"github.com/tmarcher/scorebreak/pkg/plan"
	"github.com/tmarcher/scorebreak/pkg/plan/editorial"
	"github.com/tmarcher/scorebreak/pkg/score"
)

// Layout bundles the outputs of the planning stage: both break plans
// and the per-system width allocations.
type Layout struct {
	Systems     *plan.Plan
	Allocations []*plan.Allocation
	Pages       *plan.Plan
}

// PlanWithCacheInfo runs both break passes with caching and returns
// cache hit info. Runs with a penalty function bypass the cache, since
// functions cannot be fingerprinted.
func (r *Runner) PlanWithCacheInfo(ctx context.Context, stacks []score.MeasureStack, scoreHash string, opts Options) (*Layout, bool, error) {
	if err := opts.ValidateForPlan(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	cacheable := opts.planCacheable()
	cacheKey := r.Keyer.PlanKey(scoreHash, opts.PlanKeyOpts())

	if cacheable && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			layout, err := unmarshalLayout(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "plan")
				return layout, true, nil
			}
			// Corrupt entry: fall through to recompute.
		}
		observability.Cache().OnCacheMiss(ctx, "plan")
	}

	layout, err := r.computeLayout(ctx, stacks, opts)
	if err != nil {
		return nil, false, err
	}

	if cacheable && !opts.Refresh {
		if data, err := marshalLayout(layout); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLPlan); err == nil {
				observability.Cache().OnCacheSet(ctx, "plan", len(data))
			}
		}
	}
	return layout, false, nil
}

// Reflow replans the systems covering stacks [lo, hi) after the caller
// adjusted stack metrics, reallocates widths for the changed systems,
// and reruns the page pass. Results are cached under the adjusted
// metrics rather than the parsed score, since the two no longer match.
func (r *Runner) Reflow(ctx context.Context, layout *Layout, stacks []score.MeasureStack, lo, hi int, opts Options) (*Layout, error) {
	if err := opts.ValidateForPlan(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	policy := opts.SystemPolicy()

	// Editorial constraints bind reflow too. A window that touches a
	// forced break or prevented range is rejected rather than replanned
	// without them; overrides are reapplied so the window planner sees
	// the same metrics the original plan did.
	var prep *editorial.Prepared
	adjusted := stacks
	if !opts.Constraints.Empty() {
		if err := errors.ValidateHalfOpenRange(lo, hi, layout.Systems.Len); err != nil {
			return nil, err
		}
		sb, eb := layout.Systems.Window(lo, hi)
		if opts.Constraints.RestrictsWindow(sb, eb) {
			return nil, errors.New(errors.ErrCodeConfigConflict,
				"reflow window [%d, %d) overlaps editorial constraints", sb, eb)
		}
		var err error
		prep, err = editorial.Prepare(stacks, opts.Constraints)
		if err != nil {
			return nil, err
		}
		adjusted = prep.Stacks
	}

	cacheable := opts.planCacheable()
	var cacheKey string
	if cacheable {
		encoded, err := score.MarshalStacks(adjusted)
		if err != nil {
			return nil, err
		}
		keyOpts := opts.PlanKeyOpts()
		keyOpts.Pass = fmt.Sprintf("reflow:%d-%d", lo, hi)
		cacheKey = r.Keyer.PlanKey(cache.Hash(encoded), keyOpts)

		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				if cached, err := unmarshalLayout(data); err == nil {
					observability.Cache().OnCacheHit(ctx, "plan")
					return cached, nil
				}
			}
			observability.Cache().OnCacheMiss(ctx, "plan")
		}
	}

	start := time.Now()
	systems, err := plan.Reflow(layout.Systems, adjusted, lo, hi, policy, opts.PlanOptions()...)
	observability.Pipeline().OnReflow(ctx, lo, hi, err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}

	ranges := systems.Ranges()
	allocs := make([]*plan.Allocation, len(ranges))
	for i, sr := range ranges {
		alloc, err := allocateSystem(prep, adjusted, sr[0], sr[1], policy(sr[0], sr[1]))
		if err != nil {
			return nil, err
		}
		allocs[i] = alloc
	}

	heights := plan.UniformHeights(len(ranges), opts.sysMin, opts.sysIdeal)
	pages, err := plan.BreakPages(heights, opts.PagePolicy(), opts.PlanOptions()...)
	if err != nil {
		return nil, err
	}
	out := &Layout{Systems: systems, Allocations: allocs, Pages: pages}

	if cacheable {
		if data, err := marshalLayout(out); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLPlan); err == nil {
				observability.Cache().OnCacheSet(ctx, "plan", len(data))
			}
		}
	}
	return out, nil
}

// Plan is a convenience wrapper that calls PlanWithCacheInfo and discards the cache hit info.
func (r *Runner) Plan(ctx context.Context, stacks []score.MeasureStack, scoreHash string, opts Options) (*Layout, error) {
	layout, _, err := r.PlanWithCacheInfo(ctx, stacks, scoreHash, opts)
	return layout, err
}

// computeLayout runs the system pass, allocates widths, and runs the
// page pass.
func (r *Runner) computeLayout(ctx context.Context, stacks []score.MeasureStack, opts Options) (*Layout, error) {
	policy := opts.SystemPolicy()
	planOpts := opts.PlanOptions()

	start := time.Now()
	observability.Pipeline().OnPlanStart(ctx, "systems", len(stacks))
	var systems *plan.Plan
	var prep *editorial.Prepared
	var err error
	if opts.Constraints.Empty() {
		systems, err = plan.Break(stacks, policy, planOpts...)
	} else {
		prep, err = editorial.Prepare(stacks, opts.Constraints)
		if err == nil {
			systems, err = prep.Plan(policy, planOpts...)
		}
	}
	observability.Pipeline().OnPlanComplete(ctx, "systems", planSegments(systems), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	ranges := systems.Ranges()
	allocs := make([]*plan.Allocation, len(ranges))
	for i, sr := range ranges {
		alloc, err := allocateSystem(prep, stacks, sr[0], sr[1], policy(sr[0], sr[1]))
		if err != nil {
			return nil, err
		}
		allocs[i] = alloc
	}

	start = time.Now()
	observability.Pipeline().OnPlanStart(ctx, "pages", len(ranges))
	heights := plan.UniformHeights(len(ranges), opts.sysMin, opts.sysIdeal)
	pages, err := plan.BreakPages(heights, opts.PagePolicy(), planOpts...)
	observability.Pipeline().OnPlanComplete(ctx, "pages", planSegments(pages), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return &Layout{Systems: systems, Allocations: allocs, Pages: pages}, nil
}

// allocateSystem allocates widths for the planned system [lo, hi),
// through the editorial view when one shaped the plan so both passes
// read the same metrics. Planned systems are feasible by construction,
// so a firing clamp means the plan and the allocator disagree.
func allocateSystem(prep *editorial.Prepared, stacks []score.MeasureStack, lo, hi int, width *big.Rat) (*plan.Allocation, error) {
	if prep != nil {
		return prep.AllocateSystem(lo, hi, width)
	}
	alloc, err := plan.Allocate(stacks[lo:hi], width)
	if err != nil {
		return nil, err
	}
	if alloc.Clamped() {
		return nil, errors.New(errors.ErrCodeInternal,
			"allocation clamped inside planned system [%d, %d)", lo, hi)
	}
	return alloc, nil
}

// =============================================================================
// Layout Serialization
// =============================================================================

// layoutDoc is the cache encoding of a Layout. All rationals are exact
// strings.
type layoutDoc struct {
	Breaks      []int      `json:"breaks"`
	Cost        string     `json:"cost"`
	Len         int        `json:"len"`
	Allocations []allocDoc `json:"allocations"`
	PageBreaks  []int      `json:"page_breaks"`
	PageCost    string     `json:"page_cost"`
}

type allocDoc struct {
	Gutter  string   `json:"gutter"`
	Scale   string   `json:"scale"`
	Actuals []string `json:"actuals"`
}

func marshalLayout(l *Layout) ([]byte, error) {
	doc := layoutDoc{
		Breaks:     l.Systems.Breaks,
		Cost:       score.FormatRat(l.Systems.Cost),
		Len:        l.Systems.Len,
		PageBreaks: l.Pages.Breaks,
		PageCost:   score.FormatRat(l.Pages.Cost),
	}
	for _, a := range l.Allocations {
		ad := allocDoc{
			Gutter: score.FormatRat(a.Gutter),
			Scale:  score.FormatRat(a.Scale),
		}
		for _, w := range a.Actuals {
			ad.Actuals = append(ad.Actuals, score.FormatRat(w))
		}
		doc.Allocations = append(doc.Allocations, ad)
	}
	return json.Marshal(doc)
}

func unmarshalLayout(data []byte) (*Layout, error) {
	var doc layoutDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	systems := &plan.Plan{Breaks: doc.Breaks, Len: doc.Len}
	var err error
	if systems.Cost, err = score.ParseRat(doc.Cost); err != nil {
		return nil, err
	}
	pages := &plan.Plan{Breaks: doc.PageBreaks, Len: len(doc.Allocations)}
	if pages.Cost, err = score.ParseRat(doc.PageCost); err != nil {
		return nil, err
	}

	layout := &Layout{Systems: systems, Pages: pages}
	for _, ad := range doc.Allocations {
		alloc := &plan.Allocation{}
		if alloc.Gutter, err = score.ParseRat(ad.Gutter); err != nil {
			return nil, err
		}
		if alloc.Scale, err = score.ParseRat(ad.Scale); err != nil {
			return nil, err
		}
		alloc.Actuals = make([]*big.Rat, 0, len(ad.Actuals))
		for _, w := range ad.Actuals {
			v, err := score.ParseRat(w)
			if err != nil {
				return nil, err
			}
			alloc.Actuals = append(alloc.Actuals, v)
		}
		layout.Allocations = append(layout.Allocations, alloc)
	}
	return layout, nil
}

// planSegments counts a plan's segments, tolerating nil.
func planSegments(p *plan.Plan) int {
	if p == nil {
		return 0
	}
	return len(p.Ranges())
}

// marshalConstraints produces the deterministic encoding used to
// fingerprint editorial constraints for plan cache keys.
func marshalConstraints(c editorial.Constraints) ([]byte, error) {
	return json.Marshal(c)
}

package editorial

import (
	stderrors "errors"
	"math/big"
	"sort"

	"github.com/tmarcher/scorebreak/pkg/errors"
	"github.com/tmarcher/scorebreak/pkg/plan"
	"github.com/tmarcher/scorebreak/pkg/score"
)

// Group is one element of the transformed sequence the planner sees:
// either a single original stack or a super-stack merging a prevented
// range. Stack carries the merged metrics; Members holds the originals.
type Group struct {
	Stack   score.MeasureStack
	Members []score.MeasureStack
}

// Size returns the number of original stacks in the group.
func (g Group) Size() int { return len(g.Members) }

// Start returns the original index of the group's first stack.
func (g Group) Start() int { return g.Stack.Index }

// End returns the original index one past the group's last stack.
func (g Group) End() int { return g.Stack.Index + len(g.Members) }

// ApplyOverrides returns a copy of stacks with overrides applied. A
// minimum override raises the minimum via max(min, override); an ideal
// override replaces the ideal. Results violating min <= ideal fail with
// CONFIG_CONFLICT.
func ApplyOverrides(stacks []score.MeasureStack, overrides map[int]Override) ([]score.MeasureStack, error) {
	if len(overrides) == 0 {
		return stacks, nil
	}

	out := make([]score.MeasureStack, len(stacks))
	copy(out, stacks)
	for idx, ov := range overrides {
		if idx < 0 || idx >= len(out) {
			return nil, errors.New(errors.ErrCodeConfigConflict, "override index %d outside [0, %d)", idx, len(out))
		}
		s := out[idx]
		if ov.Min != nil && ov.Min.Cmp(s.Min) > 0 {
			s.Min = new(big.Rat).Set(ov.Min)
		}
		if ov.Ideal != nil {
			s.Ideal = new(big.Rat).Set(ov.Ideal)
		}
		if s.Min.Cmp(s.Ideal) > 0 {
			return nil, errors.New(errors.ErrCodeConfigConflict,
				"override on stack %d leaves min %s above ideal %s",
				idx, score.FormatRat(s.Min), score.FormatRat(s.Ideal))
		}
		out[idx] = s
	}
	return out, nil
}

// GroupPrevented merges every prevented range into a super-stack and
// wraps the remaining stacks as single-member groups. The super-stack's
// minimum and ideal are the member sums; its gutter is the first
// member's, since only the opening stack of a system pays gutter.
func GroupPrevented(stacks []score.MeasureStack, prevented []Range) []Group {
	sorted := make([]Range, len(prevented))
	copy(sorted, prevented)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo < sorted[j].Lo })

	groups := make([]Group, 0, len(stacks))
	i := 0
	for i < len(stacks) {
		merged := false
		for _, r := range sorted {
			if r.Lo != i {
				continue
			}
			members := stacks[r.Lo:r.Hi]
			super := score.MeasureStack{
				Min:    score.SumMin(stacks, r.Lo, r.Hi),
				Ideal:  score.SumIdeal(stacks, r.Lo, r.Hi),
				Gutter: members[0].GutterOrZero(),
				Index:  members[0].Index,
			}
			groups = append(groups, Group{Stack: super, Members: members})
			i = r.Hi
			merged = true
			break
		}
		if !merged {
			groups = append(groups, Group{Stack: stacks[i], Members: stacks[i : i+1]})
			i++
		}
	}
	return groups
}

// SplitForced partitions groups at each forced break index into
// independent subsequences. Validate guarantees forced indices fall on
// group boundaries; a cut matching no group start is reported rather
// than silently merging the segments around it.
func SplitForced(groups []Group, forced []int) ([][]Group, error) {
	if len(forced) == 0 {
		return [][]Group{groups}, nil
	}
	cuts := make([]int, len(forced))
	copy(cuts, forced)
	sort.Ints(cuts)

	var segments [][]Group
	start := 0
	prev := -1
	for _, cut := range cuts {
		if cut == prev {
			continue
		}
		prev = cut
		found := false
		for i := start; i < len(groups); i++ {
			if groups[i].Start() == cut {
				segments = append(segments, groups[start:i])
				start = i
				found = true
				break
			}
		}
		if !found {
			return nil, errors.New(errors.ErrCodeInvalidRange,
				"forced break %d is not a group boundary", cut)
		}
	}
	segments = append(segments, groups[start:])
	return segments, nil
}

// Prepared is the constraint-transformed view of a stack sequence: the
// metrics the planner actually sees after overrides, plus the group
// table mapping super-stacks back to original indices. Planning and
// width allocation must both read this view, or the rendered widths
// drift from the plan.
type Prepared struct {
	Stacks []score.MeasureStack
	groups []Group
	forced []int
}

// Prepare validates constraints against stacks and builds the
// transformed view.
func Prepare(stacks []score.MeasureStack, c Constraints) (*Prepared, error) {
	if err := score.ValidateStacks(stacks); err != nil {
		return nil, err
	}
	if err := c.Validate(len(stacks)); err != nil {
		return nil, err
	}
	adjusted, err := ApplyOverrides(stacks, c.Overrides)
	if err != nil {
		return nil, err
	}
	return &Prepared{
		Stacks: adjusted,
		groups: GroupPrevented(adjusted, c.Prevented),
		forced: c.Forced,
	}, nil
}

// Plan plans each forced segment independently and concatenates the
// results into one plan over original stack indices.
func (p *Prepared) Plan(policy plan.Policy, opts ...plan.Option) (*plan.Plan, error) {
	segments, err := SplitForced(p.groups, p.forced)
	if err != nil {
		return nil, err
	}

	total := &plan.Plan{Cost: new(big.Rat), Len: len(p.Stacks)}
	for i, seg := range segments {
		segPlan, err := planGroups(seg, policy, opts)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			// The forced break itself is a system boundary.
			total.Breaks = append(total.Breaks, seg[0].Start())
		}
		total.Breaks = append(total.Breaks, segPlan.Breaks...)
		total.Cost.Add(total.Cost, segPlan.Cost)
	}
	return total, nil
}

// AllocateSystem distributes systemWidth over the original stacks of
// the planned system [lo, hi). Allocation runs at group granularity on
// the transformed metrics; members of a super-stack then each receive
// the group scale with no minimum clamp, so the gutter plus the member
// widths sum to systemWidth exactly even when one member alone falls
// short of its own minimum.
func (p *Prepared) AllocateSystem(lo, hi int, systemWidth *big.Rat) (*plan.Allocation, error) {
	var sys []Group
	for _, g := range p.groups {
		if g.End() <= lo || g.Start() >= hi {
			continue
		}
		if g.Start() < lo || g.End() > hi {
			return nil, errors.New(errors.ErrCodeInternal,
				"system [%d, %d) splits grouped stacks [%d, %d)", lo, hi, g.Start(), g.End())
		}
		sys = append(sys, g)
	}
	if len(sys) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidRange, "system [%d, %d) covers no stacks", lo, hi)
	}

	merged := make([]score.MeasureStack, len(sys))
	for i, g := range sys {
		merged[i] = g.Stack
	}
	groupAlloc, err := plan.Allocate(merged, systemWidth)
	if err != nil {
		return nil, err
	}
	if groupAlloc.Clamped() {
		return nil, errors.New(errors.ErrCodeInternal,
			"allocation clamped inside planned system [%d, %d)", lo, hi)
	}

	out := &plan.Allocation{Gutter: groupAlloc.Gutter, Scale: groupAlloc.Scale}
	out.Actuals = make([]*big.Rat, 0, hi-lo)
	for i, g := range sys {
		if g.Size() == 1 {
			out.Actuals = append(out.Actuals, groupAlloc.Actuals[i])
			continue
		}
		for _, m := range g.Members {
			out.Actuals = append(out.Actuals, new(big.Rat).Mul(m.Ideal, groupAlloc.Scale))
		}
	}
	return out, nil
}

// PlanSystems validates constraints, transforms the sequence, and plans
// it. With empty constraints it is equivalent to plan.Break.
func PlanSystems(stacks []score.MeasureStack, c Constraints, policy plan.Policy, opts ...plan.Option) (*plan.Plan, error) {
	p, err := Prepare(stacks, c)
	if err != nil {
		return nil, err
	}
	return p.Plan(policy, opts...)
}

// planGroups runs the break planner over one group segment and maps the
// resulting breaks back to original stack indices. The policy is invoked
// with original indices so width decisions stay position-aware.
func planGroups(groups []Group, policy plan.Policy, opts []plan.Option) (*plan.Plan, error) {
	if len(groups) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty forced segment")
	}

	merged := make([]score.MeasureStack, len(groups))
	for i, g := range groups {
		merged[i] = g.Stack
		// The planner requires positional indices; remember the original
		// through the group table instead.
		merged[i].Index = i
	}

	end := groups[len(groups)-1].End()
	shifted := plan.Policy(func(s, t int) *big.Rat {
		origS := groups[s].Start()
		origT := end
		if t < len(groups) {
			origT = groups[t].Start()
		}
		return policy(origS, origT)
	})

	segPlan, err := plan.Break(merged, shifted, opts...)
	if err != nil {
		return nil, remapInfeasible(err, groups)
	}

	out := &plan.Plan{Cost: segPlan.Cost, Len: end - groups[0].Start()}
	for _, b := range segPlan.Breaks {
		out.Breaks = append(out.Breaks, groups[b].Start())
	}
	return out, nil
}

// remapInfeasible translates a group-space infeasibility citation back to
// the original index of the offending group's first stack.
func remapInfeasible(err error, groups []Group) error {
	var inf *errors.InfeasibleError
	if stderrors.As(err, &inf) && inf.StackIndex >= 0 && inf.StackIndex < len(groups) {
		return &errors.InfeasibleError{StackIndex: groups[inf.StackIndex].Start()}
	}
	return err
}

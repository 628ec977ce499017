package plan

import (
	stderrors "errors"
	"math/big"
	"math/rand"
	"reflect"
	"testing"

	"github.com/tmarcher/scorebreak/pkg/errors"
	"github.com/tmarcher/scorebreak/pkg/score"
)

func stacksOf(t *testing.T, triples ...[3]int64) []score.MeasureStack {
	t.Helper()
	stacks := make([]score.MeasureStack, len(triples))
	for i, tr := range triples {
		stacks[i] = score.NewStack(i, score.R(tr[0], 1), score.R(tr[1], 1), score.R(tr[2], 1))
	}
	return stacks
}

func TestBreakSingleSystem(t *testing.T) {
	// Everything fits one system comfortably.
	stacks := stacksOf(t, [3]int64{1, 2, 0}, [3]int64{1, 2, 0}, [3]int64{1, 2, 0})
	p, err := Break(stacks, ConstantWidth(score.R(6, 1)))
	if err != nil {
		t.Fatalf("Break: %v", err)
	}
	if len(p.Breaks) != 0 {
		t.Errorf("expected no interior breaks, got %v", p.Breaks)
	}
	// Σ ideal == width, so scale is exactly 1 and cost exactly 0.
	if p.Cost.Sign() != 0 {
		t.Errorf("cost = %s, want 0", score.FormatRat(p.Cost))
	}
}

func TestBreakConcreteScenario(t *testing.T) {
	// Single-system scale would be 8/9, but the third stack's min/ideal
	// ratio is 1, so one system fails the sufficient-feasibility check
	// and the planner must split.
	stacks := stacksOf(t, [3]int64{2, 4, 0}, [3]int64{1, 2, 0}, [3]int64{3, 3, 0})
	width := score.R(8, 1)

	p, err := Break(stacks, ConstantWidth(width))
	if err != nil {
		t.Fatalf("Break: %v", err)
	}
	if len(p.Breaks) == 0 {
		t.Fatal("expected a non-trivial break list")
	}

	// Every chosen system must itself pass the sufficient check.
	for _, r := range p.Ranges() {
		avail := new(big.Rat).Sub(width, stacks[r[0]].GutterOrZero())
		scale := new(big.Rat).Quo(avail, score.SumIdeal(stacks, r[0], r[1]))
		for _, s := range stacks[r[0]:r[1]] {
			ratio := new(big.Rat).Quo(s.Min, s.Ideal)
			if scale.Cmp(ratio) < 0 {
				t.Errorf("system %v: scale %s below ratio %s of stack %d",
					r, score.FormatRat(scale), score.FormatRat(ratio), s.Index)
			}
		}
	}
}

func TestBreakDeterminism(t *testing.T) {
	stacks := stacksOf(t,
		[3]int64{2, 4, 0}, [3]int64{1, 3, 1}, [3]int64{2, 2, 0},
		[3]int64{1, 2, 0}, [3]int64{3, 5, 1}, [3]int64{2, 3, 0},
	)
	policy := IndentedFirstSystem(score.R(9, 1), score.R(1, 1))

	p1, err := Break(stacks, policy)
	if err != nil {
		t.Fatalf("Break: %v", err)
	}
	p2, err := Break(stacks, policy)
	if err != nil {
		t.Fatalf("Break: %v", err)
	}

	if !reflect.DeepEqual(p1.Breaks, p2.Breaks) {
		t.Errorf("breaks differ: %v vs %v", p1.Breaks, p2.Breaks)
	}
	if p1.Cost.Cmp(p2.Cost) != 0 {
		t.Errorf("costs differ: %s vs %s", score.FormatRat(p1.Cost), score.FormatRat(p2.Cost))
	}
	if score.FormatRat(p1.Cost) != score.FormatRat(p2.Cost) {
		t.Error("cost rendering differs between identical runs")
	}
}

func TestBreakInfeasibleCitesStack(t *testing.T) {
	// The middle stack's minimum exceeds the constant width.
	stacks := stacksOf(t, [3]int64{2, 3, 0}, [3]int64{9, 9, 0}, [3]int64{1, 2, 0})
	_, err := Break(stacks, ConstantWidth(score.R(8, 1)))
	if err == nil {
		t.Fatal("expected infeasible error")
	}

	var inf *errors.InfeasibleError
	if !stderrors.As(err, &inf) {
		t.Fatalf("expected InfeasibleError, got %T: %v", err, err)
	}
	if inf.StackIndex != 1 {
		t.Errorf("cited stack %d, want 1", inf.StackIndex)
	}
}

func TestBreakGutterReducesCapacity(t *testing.T) {
	// Without gutter both stacks share a system; the second stack's
	// gutter only matters if it opens a system.
	stacks := []score.MeasureStack{
		score.NewStack(0, score.R(3, 1), score.R(4, 1), score.R(0, 1)),
		score.NewStack(1, score.R(3, 1), score.R(4, 1), score.R(3, 1)),
	}
	// Width 7: together min sum is 6 <= 7, scale 7/8 but max ratio is
	// 3/4 <= 7/8, so one system works and costs less than two heavily
	// underfull systems.
	p, err := Break(stacks, ConstantWidth(score.R(7, 1)))
	if err != nil {
		t.Fatalf("Break: %v", err)
	}
	if len(p.Breaks) != 0 {
		t.Errorf("expected one system, got breaks %v", p.Breaks)
	}

	// Width 5: one system is impossible (min sum 6 > 5). The second
	// stack opening a system pays its gutter of 3, leaving 2 < min 3, so
	// infeasible overall.
	_, err = Break(stacks, ConstantWidth(score.R(5, 1)))
	var inf *errors.InfeasibleError
	if !stderrors.As(err, &inf) {
		t.Fatalf("expected InfeasibleError, got %v", err)
	}
	if inf.StackIndex != 1 {
		t.Errorf("cited stack %d, want 1", inf.StackIndex)
	}
}

func TestBreakRejectsBadInput(t *testing.T) {
	valid := stacksOf(t, [3]int64{1, 2, 0})

	if _, err := Break(nil, ConstantWidth(score.R(8, 1))); err == nil {
		t.Error("empty sequence should be rejected")
	}
	if _, err := Break(valid, nil); err == nil {
		t.Error("nil policy should be rejected")
	}

	bad := stacksOf(t, [3]int64{3, 2, 0})
	if _, err := Break(bad, ConstantWidth(score.R(8, 1))); !errors.Is(err, errors.ErrCodeInvalidStack) {
		t.Errorf("invariant violation should be INVALID_STACK, got %v", err)
	}

	if _, err := Break(valid, ConstantWidth(score.R(0, 1))); !errors.Is(err, errors.ErrCodeInvalidPolicy) {
		t.Errorf("non-positive policy should be INVALID_POLICY, got %v", err)
	}
}

func TestBreakPenaltySteersChoice(t *testing.T) {
	stacks := stacksOf(t, [3]int64{1, 2, 0}, [3]int64{1, 2, 0}, [3]int64{1, 2, 0}, [3]int64{1, 2, 0})
	width := ConstantWidth(score.R(4, 1))

	base, err := Break(stacks, width)
	if err != nil {
		t.Fatalf("Break: %v", err)
	}
	// Two systems of two stacks each fill exactly: cost 0.
	if !reflect.DeepEqual(base.Breaks, []int{2}) || base.Cost.Sign() != 0 {
		t.Fatalf("baseline plan = %v cost %s", base.Breaks, score.FormatRat(base.Cost))
	}

	// Penalize the segment ending at 2 hard enough to move the break.
	penalty := PenaltyFunc(func(_ []score.MeasureStack, s, t int) *big.Rat {
		if t == 2 {
			return score.R(1000, 1)
		}
		return nil
	})
	steered, err := Break(stacks, width, WithBreakPenalty(penalty))
	if err != nil {
		t.Fatalf("Break with penalty: %v", err)
	}
	if reflect.DeepEqual(steered.Breaks, []int{2}) {
		t.Errorf("penalty should have moved the break, still %v", steered.Breaks)
	}
}

func TestBreakEarlyTerminationMatchesFullScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		stacks := randomStacks(rng, 2+rng.Intn(7))
		policy := ConstantWidth(score.R(int64(4+rng.Intn(10)), 1))

		fast, errFast := Break(stacks, policy)
		full, errFull := Break(stacks, policy, WithoutEarlyTermination())

		if (errFast == nil) != (errFull == nil) {
			t.Fatalf("trial %d: feasibility disagreement: %v vs %v", trial, errFast, errFull)
		}
		if errFast != nil {
			continue
		}
		if !reflect.DeepEqual(fast.Breaks, full.Breaks) || fast.Cost.Cmp(full.Cost) != 0 {
			t.Errorf("trial %d: fast %v/%s vs full %v/%s", trial,
				fast.Breaks, score.FormatRat(fast.Cost), full.Breaks, score.FormatRat(full.Cost))
		}
	}
}

// TestBreakOptimalityBruteForce cross-checks the DP against exhaustive
// enumeration of every break configuration for small N.
func TestBreakOptimalityBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(8)
		stacks := randomStacks(rng, n)

		width := score.R(int64(3+rng.Intn(12)), 1)
		var policy Policy
		if rng.Intn(2) == 0 {
			policy = ConstantWidth(width)
		} else {
			policy = IndentedFirstSystem(width, score.R(1, 1))
		}

		bruteCost, bruteFeasible := bruteForceBest(stacks, policy)
		p, err := Break(stacks, policy)

		if !bruteFeasible {
			if err == nil {
				t.Errorf("trial %d: DP found plan %v where brute force found none", trial, p.Breaks)
			}
			continue
		}
		if err != nil {
			t.Errorf("trial %d: DP infeasible but brute force cost %s: %v", trial, score.FormatRat(bruteCost), err)
			continue
		}
		if p.Cost.Cmp(bruteCost) != 0 {
			t.Errorf("trial %d: DP cost %s != brute force %s (plan %v)",
				trial, score.FormatRat(p.Cost), score.FormatRat(bruteCost), p.Breaks)
		}
	}
}

// bruteForceBest enumerates all 2^(n-1) break configurations and returns
// the minimum total cost over feasible ones, using the same feasibility
// rules as the planner.
func bruteForceBest(stacks []score.MeasureStack, policy Policy) (*big.Rat, bool) {
	n := len(stacks)
	var best *big.Rat

	for mask := 0; mask < 1<<(n-1); mask++ {
		bounds := []int{0}
		for i := 1; i < n; i++ {
			if mask&(1<<(i-1)) != 0 {
				bounds = append(bounds, i)
			}
		}
		bounds = append(bounds, n)

		total := new(big.Rat)
		feasible := true
		for i := 0; i+1 < len(bounds); i++ {
			s, t := bounds[i], bounds[i+1]
			cost, ok := bruteSegment(stacks, s, t, policy)
			if !ok {
				feasible = false
				break
			}
			total.Add(total, cost)
		}
		if feasible && (best == nil || total.Cmp(best) < 0) {
			best = total
		}
	}
	return best, best != nil
}

func bruteSegment(stacks []score.MeasureStack, s, t int, policy Policy) (*big.Rat, bool) {
	avail := new(big.Rat).Sub(policy(s, t), stacks[s].GutterOrZero())
	if score.SumMin(stacks, s, t).Cmp(avail) > 0 {
		return nil, false
	}
	scale := new(big.Rat).Quo(avail, score.SumIdeal(stacks, s, t))
	for _, st := range stacks[s:t] {
		ratio := new(big.Rat).Quo(st.Min, st.Ideal)
		if scale.Cmp(ratio) < 0 {
			return nil, false
		}
	}
	return QuadraticCost(stacks, s, t, scale), true
}

func randomStacks(rng *rand.Rand, n int) []score.MeasureStack {
	stacks := make([]score.MeasureStack, n)
	for i := range stacks {
		min := score.R(int64(1+rng.Intn(4)), int64(1+rng.Intn(2)))
		extra := score.R(int64(rng.Intn(4)), 1)
		ideal := new(big.Rat).Add(min, extra)
		var gutter *big.Rat
		if rng.Intn(3) == 0 {
			gutter = score.R(int64(rng.Intn(2)), 1)
		}
		stacks[i] = score.NewStack(i, min, ideal, gutter)
	}
	return stacks
}

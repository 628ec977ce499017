package plan

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/tmarcher/scorebreak/pkg/score"
)

func TestAllocateSumInvariant(t *testing.T) {
	stacks := []score.MeasureStack{
		score.NewStack(0, score.R(2, 1), score.R(7, 3), score.R(1, 2)),
		score.NewStack(1, score.R(1, 1), score.R(5, 2), nil),
		score.NewStack(2, score.R(3, 2), score.R(3, 1), nil),
	}
	width := score.R(17, 2)

	alloc, err := Allocate(stacks, width)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// Exact rational equality, not approximate.
	if alloc.Sum().Cmp(width) != 0 {
		t.Errorf("gutter + Σ actuals = %s, want %s", score.FormatRat(alloc.Sum()), score.FormatRat(width))
	}
	if alloc.Gutter.Cmp(score.R(1, 2)) != 0 {
		t.Errorf("gutter = %s, want 1/2", score.FormatRat(alloc.Gutter))
	}
	for i, w := range alloc.Actuals {
		if w.Cmp(stacks[i].Min) < 0 {
			t.Errorf("actual[%d] = %s below min %s", i, score.FormatRat(w), score.FormatRat(stacks[i].Min))
		}
	}
}

func TestAllocateProportional(t *testing.T) {
	stacks := []score.MeasureStack{
		score.NewStack(0, score.R(1, 1), score.R(2, 1), nil),
		score.NewStack(1, score.R(1, 1), score.R(4, 1), nil),
	}
	alloc, err := Allocate(stacks, score.R(12, 1))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	// Scale 2: widths 4 and 8, same ratio as the ideals.
	if alloc.Scale.Cmp(score.R(2, 1)) != 0 {
		t.Errorf("scale = %s, want 2", score.FormatRat(alloc.Scale))
	}
	if alloc.Actuals[0].Cmp(score.R(4, 1)) != 0 || alloc.Actuals[1].Cmp(score.R(8, 1)) != 0 {
		t.Errorf("actuals = %s, %s", score.FormatRat(alloc.Actuals[0]), score.FormatRat(alloc.Actuals[1]))
	}
}

// TestAllocateClampNeverFiresForPlannedSystems verifies the planner's
// sufficient-feasibility check keeps the allocator's defensive clamp
// inert for every system the planner selects.
func TestAllocateClampNeverFiresForPlannedSystems(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 100; trial++ {
		stacks := randomStacks(rng, 1+rng.Intn(10))
		width := score.R(int64(4+rng.Intn(12)), 1)
		policy := ConstantWidth(width)

		p, err := Break(stacks, policy)
		if err != nil {
			continue
		}
		for _, r := range p.Ranges() {
			alloc, err := Allocate(stacks[r[0]:r[1]], policy(r[0], r[1]))
			if err != nil {
				t.Fatalf("trial %d: Allocate %v: %v", trial, r, err)
			}
			if alloc.Clamped() {
				t.Errorf("trial %d: clamp fired for planned system %v", trial, r)
			}
			if alloc.Sum().Cmp(width) != 0 {
				t.Errorf("trial %d: sum invariant broken for system %v", trial, r)
			}
		}
	}
}

func TestAllocateClampFiresOnUnplannedSystem(t *testing.T) {
	// Handed a system the planner would have rejected, the clamp keeps
	// the minimum but the caller can observe it fired.
	stacks := []score.MeasureStack{
		score.NewStack(0, score.R(2, 1), score.R(4, 1), nil),
		score.NewStack(1, score.R(3, 1), score.R(3, 1), nil),
	}
	// scale = 6/7 < 1 = min/ideal of the second stack.
	alloc, err := Allocate(stacks, score.R(6, 1))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if !alloc.Clamped() {
		t.Error("clamp should have fired")
	}
	if alloc.Actuals[1].Cmp(score.R(3, 1)) != 0 {
		t.Errorf("clamped width = %s, want 3", score.FormatRat(alloc.Actuals[1]))
	}
}

func TestAllocateErrors(t *testing.T) {
	stacks := []score.MeasureStack{score.NewStack(0, score.R(1, 1), score.R(2, 1), score.R(5, 1))}

	if _, err := Allocate(nil, score.R(8, 1)); err == nil {
		t.Error("empty system should be rejected")
	}
	if _, err := Allocate(stacks, new(big.Rat)); err == nil {
		t.Error("zero width should be rejected")
	}
	// Gutter consumes the whole width.
	if _, err := Allocate(stacks, score.R(4, 1)); err == nil {
		t.Error("gutter exceeding width should be rejected")
	}
}

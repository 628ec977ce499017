package plan

import (
	"reflect"
	"testing"

	"github.com/tmarcher/scorebreak/pkg/score"
)

func TestLayoutCachePlanPopulates(t *testing.T) {
	stacks := stacksOf(t,
		[3]int64{1, 2, 0}, [3]int64{1, 2, 0}, [3]int64{1, 2, 0}, [3]int64{1, 2, 0},
	)
	c := NewLayoutCache(ConstantWidth(score.R(4, 1)))

	p, err := c.Plan(stacks)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(c.Allocations()) != len(p.Ranges()) {
		t.Errorf("%d allocations for %d systems", len(c.Allocations()), len(p.Ranges()))
	}
	if c.Current() != p {
		t.Error("Current should return the cached plan")
	}
}

func TestLayoutCacheUpdateFastPath(t *testing.T) {
	// Four identical stacks, two systems of two. A tiny ideal tweak on
	// stack 1 keeps membership: only the first system reallocates.
	stacks := stacksOf(t,
		[3]int64{1, 2, 0}, [3]int64{1, 2, 0}, [3]int64{1, 2, 0}, [3]int64{1, 2, 0},
	)
	c := NewLayoutCache(ConstantWidth(score.R(4, 1)))
	if _, err := c.Plan(stacks); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	before := c.Current().Breaks

	repl := []score.MeasureStack{score.NewStack(1, score.R(1, 1), score.R(19, 10), nil)}
	stats, err := c.Update(1, 2, repl)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if stats.Replanned {
		t.Error("small ideal tweak should take the allocation-only path")
	}
	if stats.Reallocated != 1 {
		t.Errorf("reallocated %d systems, want 1", stats.Reallocated)
	}
	if !reflect.DeepEqual(c.Current().Breaks, before) {
		t.Errorf("breaks changed on fast path: %v -> %v", before, c.Current().Breaks)
	}
	// The untouched second system keeps its exact widths.
	second := c.Allocations()[1]
	if second.Actuals[0].Cmp(score.R(2, 1)) != 0 {
		t.Errorf("untouched system width = %s, want 2", score.FormatRat(second.Actuals[0]))
	}
}

func TestLayoutCacheUpdateReplansAndConverges(t *testing.T) {
	// Eight uniform stacks, width 4: four systems of two. Fattening
	// stack 1 so it no longer shares a system forces a replan from
	// boundary 0; the tail of the sequence converges back.
	stacks := stacksOf(t,
		[3]int64{1, 2, 0}, [3]int64{1, 2, 0}, [3]int64{1, 2, 0}, [3]int64{1, 2, 0},
		[3]int64{1, 2, 0}, [3]int64{1, 2, 0}, [3]int64{1, 2, 0}, [3]int64{1, 2, 0},
	)
	c := NewLayoutCache(ConstantWidth(score.R(4, 1)))
	if _, err := c.Plan(stacks); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !reflect.DeepEqual(c.Current().Breaks, []int{2, 4, 6}) {
		t.Fatalf("unexpected baseline plan %v", c.Current().Breaks)
	}

	repl := []score.MeasureStack{score.NewStack(1, score.R(3, 1), score.R(4, 1), nil)}
	stats, err := c.Update(1, 2, repl)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !stats.Replanned {
		t.Fatal("membership change should replan")
	}
	if stats.FromBoundary != 0 {
		t.Errorf("replan started at %d, want 0", stats.FromBoundary)
	}

	// The replanned result must match planning the new sequence from
	// scratch (determinism).
	next := make([]score.MeasureStack, len(stacks))
	copy(next, stacks)
	next[1] = repl[0]
	fresh, err := Break(next, ConstantWidth(score.R(4, 1)))
	if err != nil {
		t.Fatalf("fresh Break: %v", err)
	}
	if !reflect.DeepEqual(c.Current().Breaks, fresh.Breaks) {
		t.Errorf("cached plan %v != fresh plan %v", c.Current().Breaks, fresh.Breaks)
	}
	if c.Current().Cost.Cmp(fresh.Cost) != 0 {
		t.Errorf("cached cost %s != fresh cost %s",
			score.FormatRat(c.Current().Cost), score.FormatRat(fresh.Cost))
	}

	// Allocation count matches the new system count, and every system
	// satisfies the sum invariant.
	for i, r := range c.Current().Ranges() {
		alloc := c.Allocations()[i]
		if alloc.Sum().Cmp(score.R(4, 1)) != 0 {
			t.Errorf("system %v sum invariant broken", r)
		}
	}
}

func TestLayoutCacheUpdateValidation(t *testing.T) {
	stacks := stacksOf(t, [3]int64{1, 2, 0}, [3]int64{1, 2, 0})
	c := NewLayoutCache(ConstantWidth(score.R(4, 1)))

	if _, err := c.Update(0, 1, nil); err == nil {
		t.Error("Update before Plan should fail")
	}
	if _, err := c.Plan(stacks); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if _, err := c.Update(0, 2, []score.MeasureStack{stacks[0]}); err == nil {
		t.Error("length mismatch should fail")
	}
	if _, err := c.Update(5, 6, nil); err == nil {
		t.Error("out-of-range update should fail")
	}
	bad := []score.MeasureStack{score.NewStack(9, score.R(1, 1), score.R(2, 1), nil)}
	if _, err := c.Update(0, 1, bad); err == nil {
		t.Error("replacement index mismatch should fail")
	}
}

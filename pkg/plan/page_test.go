package plan

import (
	"reflect"
	"testing"

	"github.com/tmarcher/scorebreak/pkg/score"
)

func TestBreakPagesRigidSystems(t *testing.T) {
	// Six systems of fixed height 3 on pages of height 10: at most three
	// per page, and fuller pages cost less, so two pages of three win.
	heights := UniformHeights(6, score.R(3, 1), score.R(3, 1))
	p, err := BreakPages(heights, ConstantWidth(score.R(10, 1)))
	if err != nil {
		t.Fatalf("BreakPages: %v", err)
	}
	if !reflect.DeepEqual(p.Breaks, []int{3}) {
		t.Errorf("breaks = %v, want [3]", p.Breaks)
	}
}

func TestBreakPagesStretchySystems(t *testing.T) {
	// Systems that can stretch from 3 to an ideal of 4. Page height 8
	// fits exactly two at ideal: zero cost.
	heights := UniformHeights(4, score.R(3, 1), score.R(4, 1))
	p, err := BreakPages(heights, ConstantWidth(score.R(8, 1)))
	if err != nil {
		t.Fatalf("BreakPages: %v", err)
	}
	if !reflect.DeepEqual(p.Breaks, []int{2}) || p.Cost.Sign() != 0 {
		t.Errorf("breaks = %v cost %s, want [2] cost 0", p.Breaks, score.FormatRat(p.Cost))
	}
}

func TestBreakPagesInfeasible(t *testing.T) {
	heights := UniformHeights(2, score.R(12, 1), score.R(12, 1))
	if _, err := BreakPages(heights, ConstantWidth(score.R(10, 1))); err == nil {
		t.Error("system taller than every page should be infeasible")
	}
}

func TestBreakPagesEmpty(t *testing.T) {
	if _, err := BreakPages(nil, ConstantWidth(score.R(10, 1))); err == nil {
		t.Error("empty system sequence should be rejected")
	}
}

package plan

import (
	"math/big"

	"github.com/tmarcher/scorebreak/pkg/score"
)

// Policy returns the capacity offered to the segment [s, t): the system
// width for the break pass, the page height for the page pass.
//
// Break's early-termination optimization requires the policy to be
// non-increasing as s decreases for fixed t. Policies that cannot
// guarantee this must be planned with [WithoutEarlyTermination], which
// falls back to the full O(N²) scan.
type Policy func(s, t int) *big.Rat

// ConstantWidth offers the same capacity to every segment.
func ConstantWidth(w *big.Rat) Policy {
	return func(s, t int) *big.Rat { return w }
}

// IndentedFirstSystem narrows the segment that opens the sequence by
// indent, the usual engraving convention for a movement's first system.
// Segments not starting at 0 receive the full width. The policy is
// monotone: capacity never grows as s decreases.
func IndentedFirstSystem(w, indent *big.Rat) Policy {
	first := new(big.Rat).Sub(w, indent)
	return func(s, t int) *big.Rat {
		if s == 0 {
			return first
		}
		return w
	}
}

// SystemHeight is the vertical extent of one finished system, consumed
// by the page pass. Min is the hard lower bound; Ideal is the target
// extent including inter-system spacing. Systems that cannot stretch set
// Min == Ideal.
type SystemHeight struct {
	Min   *big.Rat
	Ideal *big.Rat
	Index int
}

// heightStacks adapts system heights to the planner's stack shape with a
// fixed zero gutter, per the page pass contract.
func heightStacks(heights []SystemHeight) []score.MeasureStack {
	stacks := make([]score.MeasureStack, len(heights))
	for i, h := range heights {
		stacks[i] = score.MeasureStack{Min: h.Min, Ideal: h.Ideal, Gutter: new(big.Rat), Index: h.Index}
	}
	return stacks
}

// UniformHeights builds one SystemHeight per system with identical min
// and ideal extents, for scores whose systems do not stretch vertically.
func UniformHeights(n int, min, ideal *big.Rat) []SystemHeight {
	heights := make([]SystemHeight, n)
	for i := range heights {
		heights[i] = SystemHeight{Min: min, Ideal: ideal, Index: i}
	}
	return heights
}

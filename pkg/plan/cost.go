package plan

import (
	"math/big"

	"github.com/tmarcher/scorebreak/pkg/score"
)

// CostFunc computes the discomfort of laying out stacks[s:t] at the given
// uniform scale factor. Implementations must be pure and deterministic;
// the planner calls them inside the DP inner loop.
//
// The symmetric quadratic [QuadraticCost] is the baseline contract. An
// asymmetric variant that penalizes compression toward the minimum more
// than expansion can be substituted without altering the DP's structure.
type CostFunc func(stacks []score.MeasureStack, s, t int, scale *big.Rat) *big.Rat

// PenaltyFunc is an optional editorial penalty added to a segment's cost,
// used to express soft break preferences. A nil PenaltyFunc contributes
// zero. Negative penalties are permitted and reward breaking after t−1.
type PenaltyFunc func(stacks []score.MeasureStack, s, t int) *big.Rat

// QuadraticCost is the default segment cost: (scale − 1)² × Σ ideal_i².
// Deviation from ideal proportions is penalized symmetrically in both
// directions.
func QuadraticCost(stacks []score.MeasureStack, s, t int, scale *big.Rat) *big.Rat {
	dev := new(big.Rat).Sub(scale, one)
	dev.Mul(dev, dev)

	sumSq := new(big.Rat)
	sq := new(big.Rat)
	for _, st := range stacks[s:t] {
		sq.Mul(st.Ideal, st.Ideal)
		sumSq.Add(sumSq, sq)
	}
	return dev.Mul(dev, sumSq)
}

var one = big.NewRat(1, 1)

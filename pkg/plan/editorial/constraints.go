package editorial

import (
	"math/big"
	"sort"

	"github.com/tmarcher/scorebreak/pkg/errors"
)

// Override adjusts one stack's widths before planning.
type Override struct {
	// Min raises the collision-derived minimum width to at least this
	// value. It can never lower the minimum. Nil leaves it untouched.
	Min *big.Rat

	// Ideal replaces the ideal width unconditionally. Nil leaves it
	// untouched.
	Ideal *big.Rat
}

// Range is a half-open [Lo, Hi) span of stack indices.
type Range struct {
	Lo, Hi int
}

// Contains reports whether k lies strictly inside the open interval
// (Lo, Hi), the positions where a break would split the range.
func (r Range) Contains(k int) bool {
	return k > r.Lo && k < r.Hi
}

// Constraints is the full set of editorial directives for one sequence.
type Constraints struct {
	// Forced break indices: every plan must place a system boundary at
	// each index. Indices must satisfy 0 < k < n.
	Forced []int

	// Prevented ranges: no plan may break strictly inside any range.
	// Ranges must not overlap one another.
	Prevented []Range

	// Overrides by original stack index.
	Overrides map[int]Override
}

// Empty reports whether the constraints carry no directives.
func (c Constraints) Empty() bool {
	return len(c.Forced) == 0 && len(c.Prevented) == 0 && len(c.Overrides) == 0
}

// RestrictsWindow reports whether any forced break or prevented range
// could influence break placement strictly inside the window (sb, eb).
// Overrides are excluded: they change metrics, not break legality.
func (c Constraints) RestrictsWindow(sb, eb int) bool {
	for _, k := range c.Forced {
		if k > sb && k < eb {
			return true
		}
	}
	for _, r := range c.Prevented {
		if r.Lo < eb && r.Hi > sb {
			return true
		}
	}
	return false
}

// Validate performs the structural checks that do not need stack metrics:
// bounds, ordering, range overlap, and forced breaks inside prevented
// ranges. Override results are checked against actual metrics later, in
// ApplyOverrides.
func (c Constraints) Validate(n int) error {
	for _, k := range c.Forced {
		if k <= 0 || k >= n {
			return errors.New(errors.ErrCodeConfigConflict, "forced break %d outside (0, %d)", k, n)
		}
	}

	sorted := make([]Range, len(c.Prevented))
	copy(sorted, c.Prevented)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo < sorted[j].Lo })

	for i, r := range sorted {
		if r.Lo < 0 || r.Hi > n || r.Lo >= r.Hi {
			return errors.New(errors.ErrCodeConfigConflict, "invalid prevented range [%d, %d)", r.Lo, r.Hi)
		}
		if i > 0 && r.Lo < sorted[i-1].Hi {
			return errors.New(errors.ErrCodeConfigConflict,
				"prevented ranges [%d, %d) and [%d, %d) overlap",
				sorted[i-1].Lo, sorted[i-1].Hi, r.Lo, r.Hi)
		}
		for _, k := range c.Forced {
			if r.Contains(k) {
				return errors.New(errors.ErrCodeConfigConflict,
					"forced break %d falls inside prevented range [%d, %d)", k, r.Lo, r.Hi)
			}
		}
	}

	for idx := range c.Overrides {
		if idx < 0 || idx >= n {
			return errors.New(errors.ErrCodeConfigConflict, "override index %d outside [0, %d)", idx, n)
		}
	}
	return nil
}

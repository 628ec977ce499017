package plan

import (
	"github.com/tmarcher/scorebreak/pkg/errors"
)

// BreakPages partitions a sequence of finished systems into pages. It is
// the same dynamic program as [Break] applied to system heights, with a
// fixed zero gutter, and runs strictly after system breaks are finalized;
// the two passes are never jointly optimized.
//
// The returned plan's breaks index into the system sequence, not the
// stack sequence.
func BreakPages(heights []SystemHeight, policy Policy, opts ...Option) (*Plan, error) {
	if len(heights) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no systems to paginate")
	}
	if policy == nil {
		return nil, errors.New(errors.ErrCodeInvalidPolicy, "nil policy")
	}
	stacks := heightStacks(heights)
	for _, s := range stacks {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	cfg := newConfig(opts)
	return breakDP(stacks, policy, cfg)
}

// Package editorial applies engraver-supplied constraints to a stack
// sequence before planning: width overrides, prevented break ranges, and
// forced breaks.
//
// Each constraint kind is a discrete transformation stage rather than
// branching logic inside the DP loop, which keeps the planner a clean
// building block shared by the system and page passes:
//
//  1. Overrides adjust individual stacks. A minimum override raises (and
//     never lowers) the collision-derived minimum; an ideal override
//     replaces the ideal unconditionally, since it encodes preference
//     rather than physical necessity.
//  2. Prevented ranges merge their stacks into one synthetic super-stack
//     (min and ideal summed, gutter from the first member) that the
//     planner treats atomically. After break selection the super-stack
//     expands back into its members, which all receive the same scale
//     factor.
//  3. Forced breaks partition the sequence into independent subsequences
//     that are planned separately and concatenated: a hard constraint
//     modeled structurally instead of with infinite costs.
//
// Contradictory configurations (a forced break strictly inside a
// prevented range, or overrides leaving min > ideal) are rejected with a
// CONFIG_CONFLICT error before any planning runs, distinct from the
// planner's INFEASIBLE.
package editorial

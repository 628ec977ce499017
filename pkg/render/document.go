package render

import (
	"math/big"

	"github.com/tmarcher/scorebreak/pkg/errors"
	"github.com/tmarcher/scorebreak/pkg/plan"
	"github.com/tmarcher/scorebreak/pkg/score"
)

// Document is the renderable result of the two planning passes: pages of
// systems of sized stacks. Widths stay exact rationals; sinks convert to
// floats only at the last moment.
type Document struct {
	Title      string
	PageWidth  score.Rat
	PageHeight score.Rat
	Pages      []Page
}

// Page is one page of systems.
type Page struct {
	Index   int
	Systems []System
}

// System is one row of stacks with its allocation.
type System struct {
	// Index is the system's position in the full sequence.
	Index int

	// Scale is the uniform stretch factor the allocator applied.
	Scale score.Rat

	// Gutter is the width reserved at the system's left edge.
	Gutter score.Rat

	Stacks []StackBox
}

// StackBox is one measure stack with its final width.
type StackBox struct {
	// Index is the stack's position in the original sequence.
	Index int

	Width score.Rat
}

// BuildDocument assembles a document from the system plan, its
// allocations, and the page plan. A nil page plan puts every system on a
// single page.
func BuildDocument(stacks []score.MeasureStack, systems *plan.Plan, allocs []*plan.Allocation, pages *plan.Plan, pageWidth, pageHeight *big.Rat) (*Document, error) {
	if systems == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil system plan")
	}
	ranges := systems.Ranges()
	if len(allocs) != len(ranges) {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"%d allocations for %d systems", len(allocs), len(ranges))
	}
	if pages != nil && pages.Len != len(ranges) {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"page plan covers %d systems, have %d", pages.Len, len(ranges))
	}

	rows := make([]System, len(ranges))
	for i, r := range ranges {
		alloc := allocs[i]
		if alloc == nil || len(alloc.Actuals) != r[1]-r[0] {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"allocation %d does not match system [%d, %d)", i, r[0], r[1])
		}
		row := System{
			Index:  i,
			Scale:  score.NewRatValue(alloc.Scale),
			Gutter: score.NewRatValue(alloc.Gutter),
			Stacks: make([]StackBox, 0, r[1]-r[0]),
		}
		for j := r[0]; j < r[1]; j++ {
			row.Stacks = append(row.Stacks, StackBox{
				Index: stacks[j].Index,
				Width: score.NewRatValue(alloc.Actuals[j-r[0]]),
			})
		}
		rows[i] = row
	}

	doc := &Document{
		PageWidth:  score.NewRatValue(pageWidth),
		PageHeight: score.NewRatValue(pageHeight),
	}
	if pages == nil {
		doc.Pages = []Page{{Index: 0, Systems: rows}}
		return doc, nil
	}
	for i, pr := range pages.Ranges() {
		doc.Pages = append(doc.Pages, Page{Index: i, Systems: rows[pr[0]:pr[1]]})
	}
	return doc, nil
}

// SystemCount returns the number of systems across all pages.
func (d *Document) SystemCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Systems)
	}
	return n
}

// StackCount returns the number of stacks across all pages.
func (d *Document) StackCount() int {
	n := 0
	for _, p := range d.Pages {
		for _, s := range p.Systems {
			n += len(s.Stacks)
		}
	}
	return n
}

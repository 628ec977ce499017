package render

import (
	"encoding/json"

	"github.com/tmarcher/scorebreak/pkg/score"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	title      string
	planID     string
	systemCost string
	pageCost   string
}

// WithJSONTitle records the piece title in the output.
func WithJSONTitle(title string) JSONOption {
	return func(r *jsonRenderer) { r.title = title }
}

// WithJSONPlanID records the plan identifier, enabling artifacts to be
// traced back to the pipeline run that produced them.
func WithJSONPlanID(id string) JSONOption {
	return func(r *jsonRenderer) { r.planID = id }
}

// WithJSONCosts records the exact plan costs of both passes.
func WithJSONCosts(systemCost, pageCost string) JSONOption {
	return func(r *jsonRenderer) { r.systemCost = systemCost; r.pageCost = pageCost }
}

type jsonOutput struct {
	Title      string     `json:"title,omitempty"`
	PlanID     string     `json:"plan_id,omitempty"`
	PageWidth  score.Rat  `json:"page_width"`
	PageHeight score.Rat  `json:"page_height"`
	SystemCost string     `json:"system_cost,omitempty"`
	PageCost   string     `json:"page_cost,omitempty"`
	Pages      []jsonPage `json:"pages"`
}

type jsonPage struct {
	Index   int          `json:"index"`
	Systems []jsonSystem `json:"systems"`
}

type jsonSystem struct {
	Index  int         `json:"index"`
	Scale  score.Rat   `json:"scale"`
	Gutter score.Rat   `json:"gutter"`
	Stacks []jsonStack `json:"stacks"`
}

type jsonStack struct {
	Index int       `json:"index"`
	Width score.Rat `json:"width"`
}

// RenderJSON exports the document as a pretty-printed JSON document, the
// primary interchange format. Widths, scales, and costs are exact
// rational strings, so a consumer can reproduce the layout without
// rounding drift.
func RenderJSON(doc *Document, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Title:      r.title,
		PlanID:     r.planID,
		PageWidth:  doc.PageWidth,
		PageHeight: doc.PageHeight,
		SystemCost: r.systemCost,
		PageCost:   r.pageCost,
	}
	for _, p := range doc.Pages {
		jp := jsonPage{Index: p.Index, Systems: make([]jsonSystem, 0, len(p.Systems))}
		for _, s := range p.Systems {
			js := jsonSystem{
				Index:  s.Index,
				Scale:  s.Scale,
				Gutter: s.Gutter,
				Stacks: make([]jsonStack, 0, len(s.Stacks)),
			}
			for _, b := range s.Stacks {
				js.Stacks = append(js.Stacks, jsonStack{Index: b.Index, Width: b.Width})
			}
			jp.Systems = append(jp.Systems, js)
		}
		out.Pages = append(out.Pages, jp)
	}
	return json.MarshalIndent(out, "", "  ")
}

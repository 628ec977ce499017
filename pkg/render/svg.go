package render

import (
	"bytes"
	"fmt"

	"github.com/tmarcher/scorebreak/pkg/score"
)

// Theme holds the colors used by the SVG sink.
type Theme struct {
	Name        string
	PageFill    string
	PageStroke  string
	StackFill   string
	StackStroke string
	GutterFill  string
	Text        string
}

// ThemePaper is the default light theme.
var ThemePaper = Theme{
	Name:        "paper",
	PageFill:    "#fffef9",
	PageStroke:  "#888888",
	StackFill:   "#ffffff",
	StackStroke: "#333333",
	GutterFill:  "#e8e4d8",
	Text:        "#333333",
}

// ThemeInk is a dark theme for on-screen proofing.
var ThemeInk = Theme{
	Name:        "ink",
	PageFill:    "#1e1e2e",
	PageStroke:  "#9999aa",
	StackFill:   "#2a2a3c",
	StackStroke: "#c0c0d0",
	GutterFill:  "#36364a",
	Text:        "#d0d0e0",
}

// Themes maps theme names to themes.
var Themes = map[string]Theme{
	ThemePaper.Name: ThemePaper,
	ThemeInk.Name:   ThemeInk,
}

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	theme  Theme
	unit   float64
	margin float64
	labels bool
}

// WithTheme selects the color theme.
func WithTheme(t Theme) SVGOption { return func(r *svgRenderer) { r.theme = t } }

// WithUnitScale sets how many pixels one layout unit occupies.
func WithUnitScale(px float64) SVGOption { return func(r *svgRenderer) { r.unit = px } }

// WithLabels draws stack indices inside the boxes.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// RenderSVG draws the document as pages side by side, each a column of
// systems, each a row of stack boxes. Output is deterministic for a
// given document and options.
func RenderSVG(doc *Document, opts ...SVGOption) []byte {
	r := svgRenderer{theme: ThemePaper, unit: 4, margin: 16}
	for _, opt := range opts {
		opt(&r)
	}

	pw := ratFloat(doc.PageWidth) * r.unit
	ph := ratFloat(doc.PageHeight) * r.unit
	totalW := r.margin + float64(len(doc.Pages))*(pw+r.margin)
	totalH := ph + 2*r.margin

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		totalW, totalH, totalW, totalH)

	for pi, page := range doc.Pages {
		px := r.margin + float64(pi)*(pw+r.margin)
		fmt.Fprintf(&buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s"/>`+"\n",
			px, r.margin, pw, ph, r.theme.PageFill, r.theme.PageStroke)

		if len(page.Systems) == 0 {
			continue
		}
		rowH := ph / float64(len(page.Systems))
		for si, sys := range page.Systems {
			y := r.margin + float64(si)*rowH
			r.renderSystem(&buf, sys, px, y, rowH)
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderSystem(buf *bytes.Buffer, sys System, px, y, rowH float64) {
	boxH := rowH * 0.8
	boxY := y + rowH*0.1

	x := px
	if g := ratFloat(sys.Gutter) * r.unit; g > 0 {
		fmt.Fprintf(buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
			x, boxY, g, boxH, r.theme.GutterFill)
		x += g
	}
	for _, b := range sys.Stacks {
		w := ratFloat(b.Width) * r.unit
		fmt.Fprintf(buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s"/>`+"\n",
			x, boxY, w, boxH, r.theme.StackFill, r.theme.StackStroke)
		if r.labels {
			fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-size="%.1f" text-anchor="middle" fill="%s">%d</text>`+"\n",
				x+w/2, boxY+boxH/2, boxH*0.3, r.theme.Text, b.Index)
		}
		x += w
	}
}

func ratFloat(r score.Rat) float64 {
	if r.Rat == nil {
		return 0
	}
	f, _ := r.Float64()
	return f
}

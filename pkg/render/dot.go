package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/tmarcher/scorebreak/pkg/score"
)

// ToDOT converts a document to Graphviz DOT format, one node per page,
// system, and stack, labelled with exact widths. The resulting DOT
// string can be rendered with [GraphvizSVG].
func ToDOT(doc *Document) string {
	var buf bytes.Buffer
	buf.WriteString("digraph layout {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	buf.WriteString("  \"score\" [fillcolor=lightgrey];\n")
	for _, p := range doc.Pages {
		pid := fmt.Sprintf("page %d", p.Index)
		fmt.Fprintf(&buf, "  %q;\n", pid)
		fmt.Fprintf(&buf, "  \"score\" -> %q;\n", pid)
		for _, s := range p.Systems {
			sid := fmt.Sprintf("system %d", s.Index)
			fmt.Fprintf(&buf, "  %q [label=\"system %d\\nscale %s\"];\n",
				sid, s.Index, ratLabel(s.Scale))
			fmt.Fprintf(&buf, "  %q -> %q;\n", pid, sid)
			for _, b := range s.Stacks {
				bid := fmt.Sprintf("stack %d", b.Index)
				fmt.Fprintf(&buf, "  %q [label=\"stack %d\\n%s\"];\n",
					bid, b.Index, ratLabel(b.Width))
				fmt.Fprintf(&buf, "  %q -> %q;\n", sid, bid)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func ratLabel(r score.Rat) string {
	return score.FormatRat(r.Rat)
}

// GraphvizSVG renders a DOT graph to SVG using Graphviz.
func GraphvizSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz SVG header to a zero-origin
// viewBox so artifacts embed consistently.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

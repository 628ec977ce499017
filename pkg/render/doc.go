// Package render turns break plans into output artifacts.
//
// The package is organized around [Document], an exact-arithmetic model
// of the planned layout, with one sink per output format:
//
//   - [RenderJSON] exports the document as the primary interchange format
//   - [RenderSVG] draws pages of systems of stacks
//   - [ToDOT] and [GraphvizSVG] render the plan structure as a graph
//
// Sinks are deterministic: the same document yields byte-identical
// output, which keeps artifact caching sound.
package render

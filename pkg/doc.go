// Package pkg provides the core libraries for Scorebreak layout planning.
//
// # Overview
//
// Scorebreak distributes a sequence of measure stacks across systems and
// pages for music engraving. All width and height arithmetic is exact,
// using rationals throughout, so the same score always yields the same
// layout. The pkg directory is organized into five main areas:
//
//  1. [score] - Input model (measure stacks, exact rationals, readers)
//  2. [plan] - Break planning (system breaks, width allocation, pages, reflow)
//  3. [render] - Output sinks (JSON, SVG, DOT/Graphviz)
//  4. [cache] - Content-addressed caching (memory, file, Redis)
//  5. [pipeline] - Orchestration (parse → plan → render)
//
// # Architecture
//
// The typical data flow through Scorebreak:
//
//	Score file (JSON/TOML/YAML)
//	         ↓
//	score.ReadStacks
//	         ↓
//	plan.Break / editorial.PlanSystems   (system pass)
//	         ↓
//	plan.Allocate per system             (exact widths)
//	         ↓
//	plan.BreakPages                      (page pass)
//	         ↓
//	render.BuildDocument → JSON / SVG / DOT
//
// The pipeline package wires these stages together with caching and
// structured logging; the plan package alone is enough for library use.
package pkg

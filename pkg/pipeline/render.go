package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tmarcher/scorebreak/pkg/cache"
	"github.com/tmarcher/scorebreak/pkg/observability"
	"github.com/tmarcher/scorebreak/pkg/render"
	"github.com/tmarcher/scorebreak/pkg/score"
)

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, doc *render.Document, layout *Layout, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// The artifact key hashes the serialized layout, so any plan change
	// invalidates every rendered format.
	layoutData, err := marshalLayout(layout)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	planHash := cache.Hash(layoutData)

	// Try to get all formats from cache.
	if !opts.Refresh {
		artifacts := make(map[string][]byte)
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(planHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				artifacts = nil
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	rendered, err := r.renderFormats(doc, layout, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(planHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, doc *render.Document, layout *Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, doc, layout, opts)
	return artifacts, err
}

// renderFormats produces every requested format from the document.
func (r *Runner) renderFormats(doc *render.Document, layout *Layout, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			data, err := render.RenderJSON(doc,
				render.WithJSONTitle(doc.Title),
				render.WithJSONCosts(
					score.FormatRat(layout.Systems.Cost),
					score.FormatRat(layout.Pages.Cost),
				),
			)
			if err != nil {
				return nil, fmt.Errorf("render json: %w", err)
			}
			out[format] = data
		case FormatSVG:
			out[format] = render.RenderSVG(doc, r.svgOptions(opts)...)
		case FormatDOT:
			out[format] = []byte(render.ToDOT(doc))
		case FormatGraph:
			data, err := render.GraphvizSVG(render.ToDOT(doc))
			if err != nil {
				return nil, fmt.Errorf("render graph: %w", err)
			}
			out[format] = data
		default:
			return nil, fmt.Errorf("invalid format: %q", format)
		}
	}
	return out, nil
}

func (r *Runner) svgOptions(opts Options) []render.SVGOption {
	svgOpts := []render.SVGOption{render.WithTheme(render.Themes[opts.Theme])}
	if opts.Labels {
		svgOpts = append(svgOpts, render.WithLabels())
	}
	return svgOpts
}

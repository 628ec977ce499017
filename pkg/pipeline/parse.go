package pipeline

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/tmarcher/scorebreak/pkg/cache"
	"github.com/tmarcher/scorebreak/pkg/errors"
	"github.com/tmarcher/scorebreak/pkg/observability"
	"github.com/tmarcher/scorebreak/pkg/score"
)

// ParseWithCacheInfo loads the measure-stack sequence with caching and
// returns the stacks, the content hash of their canonical encoding, and
// whether the cache was hit.
//
// The hash is computed over the canonical JSON encoding rather than the
// raw input, so the same score in TOML and JSON shares downstream plan
// and artifact cache entries.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, opts Options) ([]score.MeasureStack, string, bool, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, "", false, err
	}
	r.applyLogger(&opts)

	source := opts.Source
	if len(source) == 0 {
		data, err := os.ReadFile(opts.Input)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, "", false, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", opts.Input)
			}
			return nil, "", false, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", opts.Input)
		}
		source = data
	}

	cacheKey := r.Keyer.ScoreKey(opts.Format, cache.Hash(source))
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			stacks, err := score.UnmarshalStacks(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "score")
				return stacks, cache.Hash(data), true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "score")
	}

	start := time.Now()
	observability.Pipeline().OnParseStart(ctx, opts.Format, opts.Input)
	stacks, err := score.ReadStacks(bytes.NewReader(source), opts.Format)
	observability.Pipeline().OnParseComplete(ctx, opts.Format, opts.Input, len(stacks), time.Since(start), err)
	if err != nil {
		return nil, "", false, err
	}

	canonical, err := score.MarshalStacks(stacks)
	if err != nil {
		return nil, "", false, err
	}
	if err := r.Cache.Set(ctx, cacheKey, canonical, cache.TTLScore); err == nil {
		observability.Cache().OnCacheSet(ctx, "score", len(canonical))
	}
	return stacks, cache.Hash(canonical), false, nil
}

// Parse is a convenience wrapper that calls ParseWithCacheInfo and discards the cache hit info.
func (r *Runner) Parse(ctx context.Context, opts Options) ([]score.MeasureStack, error) {
	stacks, _, _, err := r.ParseWithCacheInfo(ctx, opts)
	return stacks, err
}

package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, so
// separate projects or users sharing one backend (a Redis instance, say)
// cannot collide.
//
// Example usage:
//
//	// Project-specific keys
//	projKeyer := NewScopedKeyer(NewDefaultKeyer(), "proj:symphony-no-3:")
//
//	// Shared keys
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ScoreKey generates a prefixed key for parsed-score caching.
func (k *ScopedKeyer) ScoreKey(format, contentHash string) string {
	return k.prefix + k.inner.ScoreKey(format, contentHash)
}

// PlanKey generates a prefixed key for break-plan caching.
func (k *ScopedKeyer) PlanKey(scoreHash string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(scoreHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(planHash, opts)
}

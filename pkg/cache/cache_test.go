package cache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	if err := c.Set(ctx, "plan:a", []byte("breaks"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "plan:a")
	if err != nil || !hit {
		t.Fatalf("Get = (%v, %v), want hit", hit, err)
	}
	if !bytes.Equal(data, []byte("breaks")) {
		t.Errorf("Get data = %q", data)
	}

	if err := c.Delete(ctx, "plan:a"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "plan:a"); hit {
		t.Error("deleted key should miss")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not dropped, len = %d", c.Len())
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "artifact:svg", []byte("<svg/>"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "artifact:svg")
	if err != nil || !hit {
		t.Fatalf("Get = (%v, %v), want hit", hit, err)
	}
	if !bytes.Equal(data, []byte("<svg/>")) {
		t.Errorf("Get data = %q", data)
	}

	// Unknown keys miss without error.
	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("missing key: hit=%v err=%v", hit, err)
	}

	// Expired entries miss and are removed.
	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}

	if err := c.Delete(ctx, "artifact:svg"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "artifact:svg"); hit {
		t.Error("deleted key should miss")
	}
	// Deleting a missing key is not an error.
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}

func TestFileCachePurge(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := c.Set(ctx, "a", []byte("1"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := c.Purge(); err != nil {
		t.Fatalf("Purge error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("purged entry should miss")
	}
	// The cache is still usable.
	if err := c.Set(ctx, "b", []byte("2"), 0); err != nil {
		t.Errorf("Set after Purge: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// ScoreKey stays human-readable.
	sk := k.ScoreKey("json", "abc123")
	if sk != "score:json:abc123" {
		t.Errorf("ScoreKey unexpected: %s", sk)
	}

	// PlanKey should include options in hash.
	pk1 := k.PlanKey("hash1", PlanKeyOpts{Pass: "systems", Width: "180"})
	pk2 := k.PlanKey("hash1", PlanKeyOpts{Pass: "systems", Width: "200"})
	if pk1 == pk2 {
		t.Error("Different PlanKeyOpts should produce different keys")
	}
	pk3 := k.PlanKey("hash1", PlanKeyOpts{Pass: "pages", Width: "180"})
	if pk1 == pk3 {
		t.Error("System and page passes should produce different keys")
	}

	// ArtifactKey
	ak1 := k.ArtifactKey("hash1", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash1", ArtifactKeyOpts{Format: "dot"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}

	// Keys are stable across calls.
	if pk1 != k.PlanKey("hash1", PlanKeyOpts{Pass: "systems", Width: "180"}) {
		t.Error("PlanKey should be deterministic")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "proj:op27:")

	sk := scoped.ScoreKey("toml", "h")
	if sk != "proj:op27:score:toml:h" {
		t.Errorf("ScopedKeyer ScoreKey unexpected: %s", sk)
	}

	pk := scoped.PlanKey("h", PlanKeyOpts{})
	if len(pk) < 12 || pk[:10] != "proj:op27:" {
		t.Errorf("ScopedKeyer PlanKey should be prefixed: %s", pk)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.ScoreKey("yaml", "h")
	if key != "prefix:score:yaml:h" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrBackend)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrBackend.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrNotFound) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return ErrNotFound
	})
	if err != ErrNotFound {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrBackend)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrBackend)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

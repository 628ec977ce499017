package cli

import (
	"context"
	"io"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-cache", appName) {
		t.Errorf("dir = %q", dir)
	}
}

func TestCacheDirHome(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "/tmp/home")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if dir != filepath.Join("/tmp/home", ".cache", appName) {
		t.Errorf("dir = %q", dir)
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); !reflect.DeepEqual(got, []string{"svg"}) {
		t.Errorf("default = %v", got)
	}
	if got := parseFormats("json,dot"); !reflect.DeepEqual(got, []string{"json", "dot"}) {
		t.Errorf("split = %v", got)
	}
}

func TestArtifactExt(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"svg", ".svg"},
		{"json", ".json"},
		{"dot", ".dot"},
		{"graph", ".graph.svg"},
	}
	for _, tt := range tests {
		if got := artifactExt(tt.format); got != tt.want {
			t.Errorf("artifactExt(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestRootCommand(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	if root.Use != "scorebreak" {
		t.Errorf("use = %q", root.Use)
	}
	want := map[string]bool{"plan": false, "cache": false, "completion": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing %s command", name)
		}
	}
}

func TestNewRunnerNoCache(t *testing.T) {
	c := New(io.Discard, LogInfo)
	runner, err := c.newRunner(context.Background(), CacheNone)
	if err != nil {
		t.Fatalf("newRunner: %v", err)
	}
	defer runner.Close()
}

func TestNewCacheRejectsUnknownBackend(t *testing.T) {
	if _, err := newCache(context.Background(), "memcached"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mitchellh/mapstructure"
)

func TestCacheBase_XDGSet(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	got := cacheBase()
	want := filepath.Join("/custom/cache", "rxdocs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_HomeDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	got := cacheBase()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}
	want := filepath.Join(home, ".cache", "rxdocs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_TmpFallback(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "")
	got := cacheBase()
	// Should use os.TempDir() when HOME is unset
	if !strings.Contains(got, "rxdocs") {
		t.Errorf("expected rxdocs in path, got %q", got)
	}
}

func TestSocketPath_XDGRuntime(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	got := SocketPath()
	want := filepath.Join("/run/user/1000", "rxdocs", "daemon.sock")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeExtensions(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{".md"}, []string{".md"}},
		{[]string{"md", "MDX"}, []string{".md", ".mdx"}},
		{[]string{" .Md ", ""}, []string{".md"}},
		{nil, []string{".md"}},
		{[]string{"", "  "}, []string{".md"}},
	}

	for _, tt := range tests {
		got := normalizeExtensions(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("normalizeExtensions(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStringToExtensionsHook(t *testing.T) {
	var cfg DocsConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: stringToExtensionsHookFunc(),
		Result:     &cfg,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := decoder.Decode(map[string]interface{}{
		"root":       "reflex_docs",
		"extensions": ".md, .mdx",
	}); err != nil {
		t.Fatal(err)
	}

	want := []string{".md", ".mdx"}
	if !reflect.DeepEqual(cfg.Extensions, want) {
		t.Errorf("extensions = %q, want %q", cfg.Extensions, want)
	}
}

package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	override := filepath.Join(t.TempDir(), "stage-cache")
	xdg := t.TempDir()

	tests := []struct {
		name     string
		cacheDir string
		xdg      string
		want     string
	}{
		{"default", "", "", filepath.Join(home, ".cache", appName)},
		{"xdg", "", xdg, filepath.Join(xdg, appName)},
		{"override wins", override + "/", xdg, override},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envPrefix+"CACHE_DIR", tt.cacheDir)
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			got, err := cacheDir()
			if err != nil {
				t.Fatalf("cacheDir() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("cacheDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv(envPrefix+"REDIS_ADDR", "redis:6379")
	if got := envOr("REDIS_ADDR", "localhost:6379"); got != "redis:6379" {
		t.Errorf("envOr(set) = %q", got)
	}
	t.Setenv(envPrefix+"REDIS_ADDR", "")
	if got := envOr("REDIS_ADDR", "localhost:6379"); got != "localhost:6379" {
		t.Errorf("envOr(empty) = %q", got)
	}
	t.Setenv("REDIS_ADDR", "unprefixed:6379")
	if got := envOr("REDIS_ADDR", "localhost:6379"); got != "localhost:6379" {
		t.Errorf("envOr should only read %s-prefixed variables, got %q", envPrefix, got)
	}
}

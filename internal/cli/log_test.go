package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fleetmap/pkg/cache"
)

func TestEnvLevel(t *testing.T) {
	tests := []struct {
		env  string
		want log.Level
	}{
		{"", log.InfoLevel},
		{"debug", log.DebugLevel},
		{" WARN ", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"chatty", log.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(envPrefix+"LOG_LEVEL", tt.env)
			if got := envLevel(log.InfoLevel); got != tt.want {
				t.Errorf("envLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewHonoursLogLevelEnv(t *testing.T) {
	t.Setenv(envPrefix+"LOG_LEVEL", "debug")
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.Logger.Debug("cache write failed", "stage", "raster")
	if !strings.Contains(buf.String(), "cache write failed") {
		t.Errorf("debug line missing at FLEETMAP_LOG_LEVEL=debug: %q", buf.String())
	}

	c.SetLogLevel(log.WarnLevel)
	buf.Reset()
	c.Logger.Info("rasterized obstacles")
	if buf.Len() != 0 {
		t.Errorf("info line logged at warn level: %q", buf.String())
	}
}

func TestStageTimer(t *testing.T) {
	var buf bytes.Buffer
	st := startStage(newLogger(&buf, log.InfoLevel), string(cache.StageInflate))
	st.done("inflated grid", "radius_cells", 3, "cached", false)

	out := buf.String()
	for _, want := range []string{"inflated grid", "stage=inflate", "radius_cells=3", "cached=false", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

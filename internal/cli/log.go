package cli

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger writes leveled logs with "15:04:05.00" timestamps to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// envLevel returns the level named by FLEETMAP_LOG_LEVEL, or fallback when
// it is unset or not a level name.
func envLevel(fallback log.Level) log.Level {
	v := strings.TrimSpace(os.Getenv(envPrefix + "LOG_LEVEL"))
	if v == "" {
		return fallback
	}
	level, err := log.ParseLevel(strings.ToLower(v))
	if err != nil {
		return fallback
	}
	return level
}

// stageTimer logs the completion of one pipeline stage with its elapsed time.
type stageTimer struct {
	logger *log.Logger
	start  time.Time
}

// startStage returns a timer whose log lines carry stage=name.
func startStage(l *log.Logger, name string) *stageTimer {
	return &stageTimer{logger: l.With("stage", name), start: time.Now()}
}

// done logs msg with keyvals and the elapsed time, e.g.
// "inflated grid stage=inflate radius_cells=3 cached=false elapsed=12ms".
func (s *stageTimer) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(s.start).Round(time.Millisecond))
	s.logger.Info(msg, keyvals...)
}

// Package logging builds the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FileName is the runtime log file inside the state directory.
const FileName = "unfold.log"

// Options controls where the runtime logger writes.
type Options struct {
	// Level is a zerolog level name; empty means info.
	Level string
	// Dir holds the log file. Empty means DefaultDir().
	Dir string
	// Console, when set, also receives human-readable output.
	Console io.Writer
}

// DefaultDir returns ~/.local/state/unfold, or "" when there is no home.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "unfold")
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}

// New returns a logger appending to the runtime log file and a cleanup func
// closing it. If the file cannot be opened the logger falls back to stderr.
func New(opts Options) (zerolog.Logger, func(), error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}

	out, path, closeFn := openLogFile(opts.Dir)

	var w io.Writer = out
	if opts.Console != nil {
		w = zerolog.MultiLevelWriter(
			zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: time.RFC3339},
			out,
		)
	}

	logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	if path != "" {
		logger.Debug().Str("path", path).Msg("runtime log opened")
	}
	return logger, closeFn, nil
}

func openLogFile(dir string) (io.Writer, string, func()) {
	if dir == "" {
		dir = DefaultDir()
	}
	if dir == "" {
		return os.Stderr, "", func() {}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.Stderr, "", func() {}
	}

	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return os.Stderr, "", func() {}
	}
	return f, path, func() { _ = f.Close() }
}

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where and how log records are written.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// JSON switches from the text handler to the JSON handler.
	JSON bool
	// File, when set, sends output to a size-rotated file instead of Output.
	File string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Rotation limits of the log file.
const (
	maxFileSizeMB = 10
	maxBackups    = 3
	maxAgeDays    = 28
)

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// New builds a SlogLogger from opts. The returned closer releases the log
// file, if any.
func New(opts Options) (*SlogLogger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		w      io.Writer = opts.Output
		closer io.Closer = nopCloser{}
	)
	if w == nil {
		w = os.Stderr
	}
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxFileSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		w, closer = lj, lj
	}

	ho := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, ho)
	} else {
		h = slog.NewTextHandler(w, ho)
	}
	return NewSlogLogger(slog.New(h)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

package shared

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// SetupLogger creates the root logger. level is a charmbracelet/log level
// name such as "debug"; json switches to structured output.
func SetupLogger(level string, json bool) (*log.Logger, error) {
	return newLogger(os.Stderr, level, json)
}

func newLogger(w io.Writer, level string, json bool) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		var err error
		if lvl, err = log.ParseLevel(level); err != nil {
			return nil, err
		}
	}
	logger := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	if json {
		logger.SetFormatter(log.JSONFormatter)
		logger.SetTimeFormat(time.RFC3339Nano)
	}
	return logger, nil
}

// FileLogger writes to path instead of stderr, for commands that own the
// terminal. The returned func closes the file.
func FileLogger(path, level string) (*log.Logger, func(), error) {
	if path == "" {
		logger, err := newLogger(io.Discard, level, false)
		return logger, func() {}, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(f, level, false)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return logger, func() { f.Close() }, nil
}

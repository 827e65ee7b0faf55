package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogger returns a timestamped console logger at level.
func SetupLogger(level log.Level) *log.Logger {
	return NewLogger(os.Stderr, level)
}

// NewLogger writes to w, for tests and embedding.
func NewLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
}

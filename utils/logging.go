package utils

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// NewLogger builds the process logger. Debug mode turns on per-action
// logging in the game manager.
func NewLogger(debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "bjduel",
	})
}

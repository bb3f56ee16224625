package cmd

import (
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogging routes slog through charmbracelet/log on stderr. Stdout is
// reserved for the report. Unknown levels fall back to warn.
func SetupLogging(levelStr string) {
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		level = log.WarnLevel
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "testwire",
	})
	slog.SetDefault(slog.New(logger))
}

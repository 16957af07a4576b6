// Package logging builds the process slog.Logger on top of charmbracelet/log.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/efebarandurmaz/stemgraph/internal/config"
)

// New returns a structured logger writing to w. Level and format come from
// cfg; an unknown level falls back to info and is reported as an error.
func New(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level := log.InfoLevel
	var err error
	if cfg.Level != "" {
		parsed, perr := log.ParseLevel(strings.ToLower(cfg.Level))
		if perr != nil {
			err = fmt.Errorf("log level %q: %w", cfg.Level, perr)
		} else {
			level = parsed
		}
	}

	formatter := log.TextFormatter
	if strings.EqualFold(cfg.Format, "json") {
		formatter = log.JSONFormatter
	}

	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Formatter:       formatter,
	})
	return slog.New(handler), err
}

package logging

import (
	"io"
	"os"
	"strings"

	"github.com/dakshscra/scra/internal/domain"
	"github.com/hashicorp/go-hclog"
)

// EnvLevel overrides the configured log level when set.
const EnvLevel = "SCRA_LOG_LEVEL"

// New creates the run logger. Diagnostics go to out (stderr when nil) so they
// never interleave with report output on stdout.
func New(cfg domain.LoggerConfig, name string, out io.Writer) hclog.Logger {
	if out == nil {
		out = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:            name,
		DisableTime:     true,
		JSONFormat:      cfg.JSONFormat,
		IncludeLocation: cfg.IncludeLocation,
		Output:          out,
		Level:           determineLevel(cfg, out),
	})
}

// determineLevel prefers the environment, then configuration, then INFO.
func determineLevel(cfg domain.LoggerConfig, out io.Writer) hclog.Level {
	if env := os.Getenv(EnvLevel); env != "" {
		return parseLevel(env, out)
	}
	if cfg.Level == "" {
		return hclog.Info
	}
	return parseLevel(cfg.Level, out)
}

func parseLevel(s string, out io.Writer) hclog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO":
		return hclog.Info
	case "WARN":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	case "OFF":
		return hclog.Off
	default:
		hclog.New(&hclog.LoggerOptions{
			Level:       hclog.Warn,
			DisableTime: true,
			Output:      out,
		}).Warn("unrecognized log level, defaulting to INFO", "provided_level", s)
		return hclog.Info
	}
}

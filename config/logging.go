package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// LoggingConfig is the optional logging section of config.yml.
type LoggingConfig struct {
	Level      string `json:"level,omitempty"`
	Format     string `json:"format,omitempty"`
	Output     string `json:"output,omitempty"`
	TimeFormat string `json:"time_format,omitempty"`
}

func (l *LoggingConfig) validate() error {
	if l.Level != "" {
		if _, err := zerolog.ParseLevel(l.Level); err != nil {
			return fmt.Errorf("invalid level %q: %w", l.Level, err)
		}
	}
	switch l.Format {
	case "", FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("format must be one of: console, json")
	}
	return nil
}

// SetupLogging configures the global zerolog logger. A nil cfg gives the
// basic defaults: debug level, console output on stderr. levelOverride wins
// over the configured level when set. The returned closer releases a log
// file, if one was opened.
func SetupLogging(cfg *LoggingConfig, levelOverride string) (io.Closer, error) {
	if cfg == nil {
		cfg = &LoggingConfig{}
	}

	level := zerolog.DebugLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	if levelOverride != "" {
		if parsed, err := zerolog.ParseLevel(levelOverride); err == nil {
			level = parsed
		}
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	switch cfg.Output {
	case "", "stderr":
	case "stdout":
		out = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log output: %w", err)
		}
		out = f
		closer = f
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	zerolog.SetGlobalLevel(level)
	if cfg.Format == FormatJSON {
		zerolog.TimeFieldFormat = timeFormat
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: timeFormat,
			NoColor:    out != os.Stderr && out != os.Stdout,
		}).With().Timestamp().Logger()
	}

	log.Info().Str("level", level.String()).Msgf("start logging at %s", time.Now().Format("060102-1504"))
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

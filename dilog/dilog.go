package dilog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/pegasusheavy/dependency-injector/di"
)

// Format selects the output shape of a built logger.
type Format uint8

const (
	// FormatJSON emits one JSON object per entry, for log aggregation.
	FormatJSON Format = iota
	// FormatPretty emits colored, timestamped text for development.
	FormatPretty
	// FormatCompact emits plain single-line text without colors.
	FormatCompact
)

// String reports the format name accepted by ParseFormat.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatPretty:
		return "pretty"
	case FormatCompact:
		return "compact"
	}
	return "unknown"
}

// ParseFormat reads a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "pretty":
		return FormatPretty, nil
	case "compact":
		return FormatCompact, nil
	}
	return FormatJSON, fmt.Errorf("dilog: unknown log format %q", s)
}

// Builder accumulates logger configuration. The zero value builds a JSON
// logger at debug level writing to stderr; methods return updated copies,
// so builders chain and can be reused.
type Builder struct {
	level        logrus.Level
	levelSet     bool
	format       Format
	reportCaller bool
	out          io.Writer
}

// NewBuilder starts from the defaults: debug level, JSON format, stderr.
func NewBuilder() Builder {
	return Builder{}
}

// Level sets the minimum level a built logger emits.
func (b Builder) Level(l logrus.Level) Builder {
	b.level = l
	b.levelSet = true
	return b
}

// Format selects the output format.
func (b Builder) Format(f Format) Builder {
	b.format = f
	return b
}

// JSON selects FormatJSON.
func (b Builder) JSON() Builder { return b.Format(FormatJSON) }

// Pretty selects FormatPretty.
func (b Builder) Pretty() Builder { return b.Format(FormatPretty) }

// Compact selects FormatCompact.
func (b Builder) Compact() Builder { return b.Format(FormatCompact) }

// WithCaller includes the calling function and file in each entry.
func (b Builder) WithCaller() Builder {
	b.reportCaller = true
	return b
}

// Output redirects the built logger, stderr when unset.
func (b Builder) Output(w io.Writer) Builder {
	b.out = w
	return b
}

// Build constructs the configured logger without installing it anywhere.
func (b Builder) Build() *logrus.Logger {
	l := logrus.New()

	level := logrus.DebugLevel
	if b.levelSet {
		level = b.level
	}
	l.SetLevel(level)

	switch b.format {
	case FormatPretty:
		l.SetFormatter(&logrus.TextFormatter{
			ForceColors:   true,
			FullTimestamp: true,
		})
	case FormatCompact:
		l.SetFormatter(&logrus.TextFormatter{
			DisableColors:    true,
			DisableTimestamp: true,
		})
	default:
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	l.SetReportCaller(b.reportCaller)
	if b.out != nil {
		l.SetOutput(b.out)
	} else {
		l.SetOutput(os.Stderr)
	}
	return l
}

// Install builds the logger and routes the container's logging through it.
func (b Builder) Install() *logrus.Logger {
	l := b.Build()
	di.SetLogger(l)
	return l
}

// Config is the environment surface read by FromEnv.
type Config struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
	Caller bool   `envconfig:"LOG_CALLER" default:"false"`
}

// FromEnv builds a Builder from LOG_LEVEL, LOG_FORMAT and LOG_CALLER.
// Unset variables fall back to info-level JSON without caller reporting.
func FromEnv() (Builder, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Builder{}, fmt.Errorf("dilog: reading environment: %w", err)
	}
	return FromConfig(cfg)
}

// FromConfig builds a Builder from an already-loaded Config.
func FromConfig(cfg Config) (Builder, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return Builder{}, fmt.Errorf("dilog: unknown log level %q", cfg.Level)
	}
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return Builder{}, err
	}
	b := NewBuilder().Level(level).Format(format)
	if cfg.Caller {
		b = b.WithCaller()
	}
	return b, nil
}

// Init installs the default logger: JSON format at debug level.
func Init() *logrus.Logger {
	return NewBuilder().Install()
}

// InitJSON installs a JSON logger at debug level, for production use.
func InitJSON() *logrus.Logger {
	return NewBuilder().JSON().Install()
}

// InitPretty installs a colorful text logger at debug level, for
// development use.
func InitPretty() *logrus.Logger {
	return NewBuilder().Pretty().Install()
}

package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default logging configuration constants
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days

	defaultFileName = "welltrack.log"
)

// SlogConfig selects level and format of the application logger.
type SlogConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // text or json
	Color      bool   `mapstructure:"color"`
	TimeStamps bool   `mapstructure:"timestamps"`
	AddSource  bool   `mapstructure:"add_source"`
}

// FileConfig describes the optional rotated log file. If Path is empty and
// Dir is set, the file is Dir/welltrack.log. Rotation parameters follow
// lumberjack semantics.
type FileConfig struct {
	Dir        string `mapstructure:"dir"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type Config struct {
	Slog SlogConfig `mapstructure:"slog"`
	File FileConfig `mapstructure:"file"`
}

func DefaultConfig() Config {
	return Config{Slog: SlogConfig{Level: "info", Format: "text", TimeStamps: true}}
}

// FilePath returns the resolved log file path or "".
func (c Config) FilePath() string {
	if c.File.Path != "" {
		return c.File.Path
	}
	if c.File.Dir != "" {
		return filepath.Join(c.File.Dir, defaultFileName)
	}
	return ""
}

// FileWriter returns a rotating writer for the configured file, or nil when
// no file is configured.
func (c Config) FileWriter() io.WriteCloser {
	path := c.FilePath()
	if path == "" {
		return nil
	}
	return &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(c.File.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.File.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.File.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.File.Compress,
	}
}

// ParseLevel maps a level name to slog.Level.
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
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NewSlogger builds the application logger writing to stderr, or to the
// configured file when one is set. The returned closer releases the file and
// is never nil.
func NewSlogger(c Config) (*slog.Logger, io.Closer, error) {
	return newSlogger(c, os.Stderr)
}

func newSlogger(c Config, console io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(c.Slog.Level)
	if err != nil {
		return nil, nil, err
	}
	var (
		w      = console
		closer io.Closer = nopCloser{}
	)
	if fw := c.FileWriter(); fw != nil {
		w, closer = fw, fw
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: c.Slog.AddSource}
	if !c.Slog.TimeStamps {
		opts.ReplaceAttr = dropTime
	}

	var h slog.Handler
	switch strings.ToLower(c.Slog.Format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "", "text":
		if c.Slog.Color && w == console {
			h = NewColorTextHandler(w, &slog.HandlerOptions{Level: level, AddSource: c.Slog.AddSource}, c.Slog.TimeStamps)
		} else {
			h = slog.NewTextHandler(w, opts)
		}
	default:
		_ = closer.Close()
		return nil, nil, fmt.Errorf("unknown log format %q", c.Slog.Format)
	}
	return slog.New(h), closer, nil
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger. File is optional; when set, logs
// are also written there with size-based rotation.
type Options struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`

	// Console defaults to os.Stderr.
	Console *os.File `mapstructure:"-"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger writing human-readable output to the console and, if
// configured, JSON lines to a rotating file. The returned closer releases
// the file sink.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	isTerminal := isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())
	console := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	if opts.File == "" {
		logger := zerolog.New(console).Level(level).With().Timestamp().Logger()
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    withDefault(opts.MaxSizeMB, 16),
		MaxBackups: withDefault(opts.MaxBackups, 8),
		MaxAge:     withDefault(opts.MaxAgeDays, 30),
		Compress:   true,
	}

	multi := zerolog.MultiLevelWriter(io.Writer(console), file)
	logger := zerolog.New(multi).Level(level).With().Timestamp().Logger()
	return logger, file, nil
}

func withDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

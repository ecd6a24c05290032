package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config mirrors the noct.log configuration block.
type Config struct {
	Level         string `json:"level"`
	ConsoleOutput bool   `json:"console_output"`
	NoColor       bool   `json:"no_color"`
	FilePath      string `json:"file_path"`
	MaxSizeMB     int    `json:"max_size_mb"`
	MaxBackups    int    `json:"max_backups"`
	MaxAgeDays    int    `json:"max_age_days"`
	Compress      bool   `json:"compress"`
	Timezone      string `json:"timezone"`
	CallerSkip    int    `json:"caller_skip"`
	StackTraces   bool   `json:"stack_traces"`
}

// DefaultConfig logs info and above to stdout.
func DefaultConfig() Config {
	return Config{Level: "info", ConsoleOutput: true}
}

const callerSkipDefault = 4

// InitLogger builds the zerolog backed kratos logger from cfg and installs
// it globally. Every record is also handed to sinks, for example a
// RingLogger feeding the on-screen console. The returned closer closes the
// rotating log file, if any.
func InitLogger(name, version string, cfg Config, sinks ...log.Logger) (io.Closer, error) {
	if name == "" {
		return nil, fmt.Errorf("service name cannot be empty")
	}

	var writers []io.Writer
	if cfg.ConsoleOutput {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339Nano,
			NoColor:    cfg.NoColor,
			PartsOrder: []string{
				zerolog.TimestampFieldName,
				zerolog.LevelFieldName,
				zerolog.CallerFieldName,
				zerolog.MessageFieldName,
			},
		})
	}

	var closer io.Closer = nopCloser{}
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	loc := time.Local
	if cfg.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Timezone); err == nil {
			loc = l
		}
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFunc = func() time.Time { return time.Now().In(loc) }
	// Level filtering happens in the adapter so SetLevel applies at runtime.
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	SetLevel(ParseLevel(cfg.Level))
	EnableStackTraces(cfg.StackTraces, ErrorLevel)

	skip := callerSkipDefault
	if cfg.CallerSkip > 0 {
		skip = cfg.CallerSkip
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	base := NewZerologLogger(zl)
	if len(sinks) > 0 {
		base = multiLogger(append([]log.Logger{base}, sinks...))
	}
	logger := log.With(base,
		"caller", Caller(skip),
		"service.name", name,
		"service.version", version,
	)
	SetLogger(logger)

	Infof("logging initialized at level %s", GetLevel())
	return closer, nil
}

// multiLogger fans every record out to each logger and joins their errors.
type multiLogger []log.Logger

func (m multiLogger) Log(level log.Level, keyvals ...any) error {
	var errs []error
	for _, l := range m {
		if err := l.Log(level, keyvals...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Caller returns a log.Valuer that provides the caller's source location.
//
// Example output: "resource/database.go:42"
func Caller(depth int) log.Valuer {
	if depth < 0 {
		depth = 0
	}
	return func(context.Context) any {
		_, file, line, ok := runtime.Caller(depth)
		if !ok {
			return "unknown:0"
		}
		return trimFilePath(file, 2) + ":" + strconv.Itoa(line)
	}
}

// trimFilePath reduces a file path to its last depth components.
func trimFilePath(file string, depth int) string {
	if file == "" || depth <= 0 {
		return "unknown"
	}
	var slashPos []int
	for i := len(file) - 1; i >= 0; i-- {
		if file[i] == '/' || file[i] == '\\' {
			slashPos = append(slashPos, i)
			if len(slashPos) == depth {
				break
			}
		}
	}
	if len(slashPos) == 0 {
		return file
	}
	return file[slashPos[len(slashPos)-1]+1:]
}

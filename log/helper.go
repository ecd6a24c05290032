// Package log provides the logging facade used across noct.
//
// It wraps the Kratos logging interface with a zerolog backend and adds the
// Console, a lock-free ring of log records that any goroutine may write into
// and a single consumer drains once per frame.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// Level represents the logging level.
type Level int32

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel
	// ErrorLevel logs are high-priority.
	ErrorLevel
	// FatalLevel logs are particularly important errors.
	FatalLevel
)

// String returns the upper-case tag used in console lines.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "..."
	}
}

// ParseLevel maps a configuration string to a Level, defaulting to InfoLevel.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return DebugLevel
	case "warn", "WARN", "warning":
		return WarnLevel
	case "error", "ERROR":
		return ErrorLevel
	case "fatal", "FATAL":
		return FatalLevel
	default:
		return InfoLevel
	}
}

func (l Level) kratos() log.Level {
	switch l {
	case DebugLevel:
		return log.LevelDebug
	case WarnLevel:
		return log.LevelWarn
	case ErrorLevel:
		return log.LevelError
	case FatalLevel:
		return log.LevelFatal
	default:
		return log.LevelInfo
	}
}

func fromKratos(l log.Level) Level {
	switch l {
	case log.LevelDebug:
		return DebugLevel
	case log.LevelWarn:
		return WarnLevel
	case log.LevelError:
		return ErrorLevel
	case log.LevelFatal:
		return FatalLevel
	default:
		return InfoLevel
	}
}

var (
	// Logger is the primary structured logger. It stays nil until InitLogger
	// or SetLogger runs; the package helpers fall back to stderr meanwhile.
	Logger log.Logger

	// helperStore holds the current *log.Helper so hot swaps are race free.
	helperStore atomic.Value // of *log.Helper

	// minLevel is the unified kratos/zerolog filter level.
	minLevel atomic.Int32
)

func init() {
	minLevel.Store(int32(InfoLevel))
}

// SetLogger installs l as the global logger, e.g. a test logger or a
// RingLogger feeding the console.
func SetLogger(l log.Logger) {
	if l == nil {
		return
	}
	Logger = l
	helperStore.Store(log.NewHelper(l))
}

// SetLevel sets the global logging level.
func SetLevel(level Level) {
	minLevel.Store(int32(level))
}

// GetLevel returns the current global logging level.
func GetLevel() Level {
	return Level(minLevel.Load())
}

// fallbackLogger writes plain lines to stderr when no logger is installed.
type fallbackLogger struct{}

func (f *fallbackLogger) logPlain(level Level, msg string) {
	if level < GetLevel() {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(os.Stderr, "[%s] [%s] [noct-log-fallback] %s\n", timestamp, level, msg)
}

var fallback = &fallbackLogger{}

// formatKeyvals renders keyvals as space separated k=v pairs with the
// message first. A trailing key without a value is kept as is.
func formatKeyvals(keyvals []any) string {
	var msg string
	parts := make([]string, 0, len(keyvals)/2+1)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if i+1 >= len(keyvals) {
			parts = append(parts, key)
			break
		}
		if key == log.DefaultMessageKey && msg == "" {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", key, keyvals[i+1]))
	}
	if msg != "" {
		parts = append([]string{msg}, parts...)
	}
	return strings.Join(parts, " ")
}

func helper() *log.Helper {
	if v := helperStore.Load(); v != nil {
		if h, ok := v.(*log.Helper); ok && h != nil {
			return h
		}
	}
	return nil
}

// Debug logs at DebugLevel.
func Debug(a ...any) {
	if h := helper(); h != nil {
		h.Debug(a...)
	} else {
		fallback.logPlain(DebugLevel, fmt.Sprint(a...))
	}
}

func Debugf(format string, a ...any) {
	if h := helper(); h != nil {
		h.Debugf(format, a...)
	} else {
		fallback.logPlain(DebugLevel, fmt.Sprintf(format, a...))
	}
}

func Debugw(keyvals ...any) {
	if h := helper(); h != nil {
		h.Debugw(keyvals...)
	} else {
		fallback.logPlain(DebugLevel, formatKeyvals(keyvals))
	}
}

func Info(a ...any) {
	if h := helper(); h != nil {
		h.Info(a...)
	} else {
		fallback.logPlain(InfoLevel, fmt.Sprint(a...))
	}
}

func Infof(format string, a ...any) {
	if h := helper(); h != nil {
		h.Infof(format, a...)
	} else {
		fallback.logPlain(InfoLevel, fmt.Sprintf(format, a...))
	}
}

func Infow(keyvals ...any) {
	if h := helper(); h != nil {
		h.Infow(keyvals...)
	} else {
		fallback.logPlain(InfoLevel, formatKeyvals(keyvals))
	}
}

func Warn(a ...any) {
	if h := helper(); h != nil {
		h.Warn(a...)
	} else {
		fallback.logPlain(WarnLevel, fmt.Sprint(a...))
	}
}

func Warnf(format string, a ...any) {
	if h := helper(); h != nil {
		h.Warnf(format, a...)
	} else {
		fallback.logPlain(WarnLevel, fmt.Sprintf(format, a...))
	}
}

func Warnw(keyvals ...any) {
	if h := helper(); h != nil {
		h.Warnw(keyvals...)
	} else {
		fallback.logPlain(WarnLevel, formatKeyvals(keyvals))
	}
}

func Error(a ...any) {
	if h := helper(); h != nil {
		h.Error(a...)
	} else {
		fallback.logPlain(ErrorLevel, fmt.Sprint(a...))
	}
}

func Errorf(format string, a ...any) {
	if h := helper(); h != nil {
		h.Errorf(format, a...)
	} else {
		fallback.logPlain(ErrorLevel, fmt.Sprintf(format, a...))
	}
}

func Errorw(keyvals ...any) {
	if h := helper(); h != nil {
		h.Errorw(keyvals...)
	} else {
		fallback.logPlain(ErrorLevel, formatKeyvals(keyvals))
	}
}

package log

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/rs/zerolog"
)

// zeroLogLogger adapts a zerolog.Logger to the kratos log.Logger interface.
type zeroLogLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps z as a kratos logger honouring the global level.
func NewZerologLogger(z zerolog.Logger) log.Logger {
	return zeroLogLogger{logger: z}
}

// Log implements log.Logger.
func (l zeroLogLogger) Log(level log.Level, keyvals ...any) error {
	if fromKratos(level) < GetLevel() {
		return nil
	}
	// Tolerate odd number of keyvals by appending a placeholder value
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "BAD_VALUE")
	}

	var event *zerolog.Event
	switch level {
	case log.LevelDebug:
		event = l.logger.Debug()
	case log.LevelInfo:
		event = l.logger.Info()
	case log.LevelWarn:
		event = l.logger.Warn()
	case log.LevelError:
		event = l.logger.Error()
	case log.LevelFatal:
		// zerolog's Fatal exits the process; the console decides what fatal means.
		event = l.logger.WithLevel(zerolog.FatalLevel)
	default:
		event = l.logger.Warn().Interface("original_level", level)
	}

	var msg string
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprintf("BAD_KEY_%d", i)
			event = event.Interface("original_key", keyvals[i])
		}

		val := keyvals[i+1]

		if key == log.DefaultMessageKey {
			if str, ok := val.(string); ok {
				msg = str
			} else {
				msg = fmt.Sprint(val)
			}
			continue
		}

		if key == "err" || key == "error" {
			if e, ok := val.(error); ok {
				event = event.Err(e)
				continue
			}
		}

		event = event.Interface(key, val)
	}

	if sc := getStackConfig(); sc.enabled && level >= sc.minLevel {
		if stack := captureStack(); stack != "" {
			event = event.Str("stack", stack)
		}
	}

	event.Msg(msg)
	return nil
}

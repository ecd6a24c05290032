package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-kratos/kratos/v2/log"
)

// Line is a drained console record together with its rendered text.
type Line struct {
	Entry
	Text string
}

// Console buffers records written from any goroutine and turns them into
// display lines when the frame driver calls Update.
type Console struct {
	ring     *Ring
	maxLines int
	out      io.Writer
	noColor  bool

	mu    sync.Mutex
	lines []Line
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithCapacity sets the ring capacity.
func WithCapacity(n int) ConsoleOption {
	return func(c *Console) { c.ring = NewRing(n) }
}

// WithMaxLines bounds the number of retained lines; zero keeps everything.
func WithMaxLines(n int) ConsoleOption {
	return func(c *Console) { c.maxLines = n }
}

// WithOutput mirrors every drained line to w.
func WithOutput(w io.Writer, noColor bool) ConsoleOption {
	return func(c *Console) {
		c.out = w
		c.noColor = noColor
	}
}

// NewConsole creates a Console with a DefaultRingCapacity ring.
func NewConsole(opts ...ConsoleOption) *Console {
	c := &Console{}
	for _, o := range opts {
		o(c)
	}
	if c.ring == nil {
		c.ring = NewRing(DefaultRingCapacity)
	}
	return c
}

// Ring exposes the underlying ring buffer.
func (c *Console) Ring() *Ring { return c.ring }

// Write queues msg at lvl. Safe for concurrent use.
func (c *Console) Write(lvl Level, msg string) {
	c.WriteFrom(0, lvl, msg)
}

// WriteFrom queues msg tagged with a producer id, typically one per
// loader goroutine.
func (c *Console) WriteFrom(producer uint32, lvl Level, msg string) {
	c.ring.Push(Entry{
		Time:     time.Now(),
		Level:    lvl,
		Producer: producer,
		Message:  msg,
	})
}

func (c *Console) Debug(msg string) { c.Write(DebugLevel, msg) }
func (c *Console) Info(msg string)  { c.Write(InfoLevel, msg) }
func (c *Console) Warn(msg string)  { c.Write(WarnLevel, msg) }
func (c *Console) Error(msg string) { c.Write(ErrorLevel, msg) }
func (c *Console) Fatal(msg string) { c.Write(FatalLevel, msg) }

// ErrorErr queues err's message at ErrorLevel.
func (c *Console) ErrorErr(err error) {
	if err != nil {
		c.Write(ErrorLevel, err.Error())
	}
}

// Update drains the ring. It is the single consumer and must be called from
// one goroutine, normally once per frame.
func (c *Console) Update() int {
	var drained []Line
	for {
		e, ok := c.ring.Pop()
		if !ok {
			break
		}
		drained = append(drained, Line{Entry: e, Text: formatLine(e)})
	}
	if len(drained) == 0 {
		return 0
	}

	if c.out != nil {
		for _, l := range drained {
			levelColor(l.Level, c.noColor).Fprintln(c.out, l.Text)
		}
	}

	c.mu.Lock()
	c.lines = append(c.lines, drained...)
	if c.maxLines > 0 && len(c.lines) > c.maxLines {
		c.lines = append([]Line(nil), c.lines[len(c.lines)-c.maxLines:]...)
	}
	c.mu.Unlock()
	return len(drained)
}

// Lines returns a snapshot of the retained lines, oldest first.
func (c *Console) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

// Clear drops all retained lines.
func (c *Console) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

func formatLine(e Entry) string {
	return fmt.Sprintf("%s -> [%s]{%d}: %s", e.Time.UTC().Format("15:04:05"), e.Level, e.Producer, e.Message)
}

func levelColor(l Level, noColor bool) *color.Color {
	var c *color.Color
	switch l {
	case InfoLevel:
		c = color.New(color.FgWhite)
	case WarnLevel:
		c = color.New(color.FgYellow)
	case ErrorLevel:
		c = color.New(color.FgRed)
	case DebugLevel:
		c = color.New(color.FgHiBlack)
	case FatalLevel:
		c = color.New(color.FgMagenta)
	default:
		c = color.New(color.FgCyan)
	}
	if noColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c
}

// RingLogger is a kratos log.Logger that feeds a Console, so anything
// logging through the global logger also shows up on screen.
type RingLogger struct {
	console  *Console
	producer uint32
}

// NewRingLogger returns a logger writing into c.
func NewRingLogger(c *Console, producer uint32) *RingLogger {
	return &RingLogger{console: c, producer: producer}
}

var ringSkipKeys = map[string]struct{}{
	"caller":          {},
	"service.name":    {},
	"service.version": {},
}

// Log implements log.Logger.
func (l *RingLogger) Log(level log.Level, keyvals ...any) error {
	lvl := fromKratos(level)
	if lvl < GetLevel() {
		return nil
	}
	var msg string
	var fields []string
	for i := 0; i+1 < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == log.DefaultMessageKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		if _, skip := ringSkipKeys[key]; skip {
			continue
		}
		fields = append(fields, fmt.Sprintf("%s=%v", key, keyvals[i+1]))
	}
	if len(fields) > 0 {
		if msg != "" {
			msg += " "
		}
		msg += strings.Join(fields, " ")
	}
	l.console.WriteFrom(l.producer, lvl, msg)
	return nil
}

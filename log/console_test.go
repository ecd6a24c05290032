package log

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	klog "github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_UpdateDrainsRing(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(WithCapacity(16), WithOutput(&out, true))

	c.Info("hello")
	c.Warn("careful")
	c.ErrorErr(errors.New("boom"))

	assert.Equal(t, 3, c.Update())
	assert.Equal(t, 0, c.Update())

	lines := c.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, InfoLevel, lines[0].Level)
	assert.Contains(t, lines[0].Text, "[INFO]{0}: hello")
	assert.Contains(t, lines[1].Text, "[WARN]")
	assert.Contains(t, lines[2].Text, "boom")

	printed := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, printed, 3)
	assert.Equal(t, lines[2].Text, printed[2])
}

func TestConsole_MaxLines(t *testing.T) {
	c := NewConsole(WithMaxLines(2))
	c.Debug("1")
	c.Debug("2")
	c.Debug("3")
	c.Update()

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0].Text, ": 2")
	assert.Contains(t, lines[1].Text, ": 3")

	c.Clear()
	assert.Empty(t, c.Lines())
}

func TestConsole_ConcurrentWriters(t *testing.T) {
	c := NewConsole(WithCapacity(1024))
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p uint32) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.WriteFrom(p, InfoLevel, "tick")
			}
		}(uint32(p))
	}
	wg.Wait()
	assert.Equal(t, 400, c.Update())
}

func TestRingLogger_FeedsConsole(t *testing.T) {
	prev := GetLevel()
	SetLevel(InfoLevel)
	defer SetLevel(prev)

	c := NewConsole()
	logger := NewRingLogger(c, 7)
	h := klog.NewHelper(logger)

	h.Infow(klog.DefaultMessageKey, "loaded", "name", "hero", "caller", "x.go:1")
	h.Debug("filtered out")
	c.Update()

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, uint32(7), lines[0].Producer)
	assert.Equal(t, "loaded name=hero", lines[0].Message)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("warn"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, "FATAL", FatalLevel.String())
}

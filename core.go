package noct

import (
	"fmt"
	"time"

	"github.com/noctsys/noct/log"
	"github.com/noctsys/noct/resource"
	"github.com/noctsys/noct/state"
)

// Core aggregates the subsystems a state needs. States hold a reference to
// the Core but do not own the database or the console.
type Core struct {
	Stack     *state.Stack
	Resources *resource.Database
	Console   *log.Console

	frames uint64
}

// Option configures a Core.
type Option func(*Core)

// WithResources uses db instead of a new empty database.
func WithResources(db *resource.Database) Option {
	return func(c *Core) { c.Resources = db }
}

// WithConsole uses con instead of a console with default capacity.
func WithConsole(con *log.Console) Option {
	return func(c *Core) { c.Console = con }
}

// New returns a Core with an empty state stack.
func New(opts ...Option) *Core {
	c := &Core{Stack: state.NewStack()}
	for _, o := range opts {
		o(c)
	}
	if c.Resources == nil {
		c.Resources = resource.NewDatabase()
	}
	if c.Console == nil {
		c.Console = log.NewConsole()
	}
	return c
}

// Load pushes s and applies the transition immediately.
func (c *Core) Load(s state.State) error {
	c.Stack.Push(s)
	if err := c.Stack.Process(); err != nil {
		return fmt.Errorf("noct: load state: %w", err)
	}
	return nil
}

// Step runs one frame: queued transitions, then each event, then the
// update, then the console drain, then the render. An empty stack fails
// with state.ErrStackUnderflow.
func (c *Core) Step(dt time.Duration, events ...state.Event) error {
	if err := c.Stack.Process(); err != nil {
		return fmt.Errorf("noct: process transitions: %w", err)
	}
	for _, ev := range events {
		if err := c.Stack.Dispatch(ev); err != nil {
			return fmt.Errorf("noct: dispatch: %w", err)
		}
	}
	if err := c.Stack.Update(dt); err != nil {
		return fmt.Errorf("noct: update: %w", err)
	}
	c.Console.Update()
	if err := c.Stack.Render(); err != nil {
		return fmt.Errorf("noct: render: %w", err)
	}
	c.frames++
	return nil
}

// Frames returns the number of completed steps.
func (c *Core) Frames() uint64 { return c.frames }

// Close unwinds the state stack, drains the console and releases the
// resource database.
func (c *Core) Close() error {
	c.Stack.Close()
	c.Console.Update()
	if err := c.Resources.Close(); err != nil {
		return fmt.Errorf("noct: close resources: %w", err)
	}
	log.Debugw("msg", "core closed", "frames", c.frames)
	return nil
}

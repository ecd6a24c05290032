// Package state implements the application state stack: an ordered stack
// of modes whose transitions are queued by Push, Replace and Pop and only
// applied by Process at a frame boundary.
package state

import "time"

// Event is an input event delivered to the active state.
type Event any

// State is one application mode. OnInit runs when the state becomes the
// top of the stack through a push.
type State interface {
	OnInit()
	OnUpdate(dt time.Duration)
	OnRender()
}

// Freezer is implemented by states that react to another state being
// pushed on top of them.
type Freezer interface {
	OnFreeze()
}

// Thawer is implemented by states that react to becoming the top again
// after a pop.
type Thawer interface {
	OnThaw()
}

// EventHandler is implemented by states that consume input events.
type EventHandler interface {
	OnEvent(ev Event)
}

// Destroyer is implemented by states that release resources when removed
// from the stack.
type Destroyer interface {
	OnDestroy()
}

// Base provides no-op optional hooks. Embed it and implement the State
// methods.
type Base struct{}

func (Base) OnFreeze()     {}
func (Base) OnThaw()       {}
func (Base) OnEvent(Event) {}
func (Base) OnDestroy()    {}

func freeze(s State) {
	if f, ok := s.(Freezer); ok {
		f.OnFreeze()
	}
}

func thaw(s State) {
	if t, ok := s.(Thawer); ok {
		t.OnThaw()
	}
}

func destroy(s State) {
	if d, ok := s.(Destroyer); ok {
		d.OnDestroy()
	}
}

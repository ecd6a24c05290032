package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/noctsys/noct/log"
)

// ErrStackUnderflow is returned when an operation needs a state and the
// stack is empty. It signals a programming error in the frame driver.
var ErrStackUnderflow = errors.New("state stack underflow")

var errReplaceEmpty = fmt.Errorf("%w: cannot replace a state that does not exist", ErrStackUnderflow)

// Stack owns its states. It is driven from a single goroutine and is not
// safe for concurrent use.
//
// Push, Replace and Pop only queue a transition; Process applies it. A state
// may therefore request a transition from inside its own callbacks.
type Stack struct {
	states []State

	next      State
	pushing   bool
	replacing bool
	popping   bool
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Push queues s to be pushed on top. A later Push or Replace before the
// next Process overwrites it.
func (s *Stack) Push(st State) {
	s.next, s.pushing, s.replacing = st, true, false
}

// Replace queues st to replace the current top.
func (s *Stack) Replace(st State) {
	s.next, s.pushing, s.replacing = st, true, true
}

// Pop queues removal of the top state.
func (s *Stack) Pop() {
	s.popping = true
}

// Pending reports the queued transitions.
func (s *Stack) Pending() (push, replace, pop bool) {
	return s.pushing, s.pushing && s.replacing, s.popping
}

// Process applies the queued push, then the queued pop.
//
// A replace removes the top without OnFreeze or OnThaw and calls its
// OnDestroy. A plain push freezes the current top. The new top then gets
// OnInit. A pop destroys the top and thaws the state below it.
//
// Replacing on an empty stack fails with ErrStackUnderflow, discards the
// queued push and leaves the stack untouched; a queued pop stays queued.
func (s *Stack) Process() error {
	if s.pushing {
		next, replacing := s.next, s.replacing
		s.next, s.pushing, s.replacing = nil, false, false

		if replacing {
			if len(s.states) == 0 {
				return errReplaceEmpty
			}
			destroy(s.remove())
			log.Debugw("msg", "state replaced", "depth", len(s.states)+1)
		} else if top, ok := s.top(); ok {
			freeze(top)
		}
		s.states = append(s.states, next)
		next.OnInit()
	}

	if s.popping {
		s.popping = false
		if len(s.states) == 0 {
			return ErrStackUnderflow
		}
		destroy(s.remove())
		if top, ok := s.top(); ok {
			thaw(top)
		}
		log.Debugw("msg", "state popped", "depth", len(s.states))
	}
	return nil
}

func (s *Stack) top() (State, bool) {
	if len(s.states) == 0 {
		return nil, false
	}
	return s.states[len(s.states)-1], true
}

func (s *Stack) remove() State {
	n := len(s.states) - 1
	st := s.states[n]
	s.states[n] = nil
	s.states = s.states[:n]
	return st
}

// Top returns the active state.
func (s *Stack) Top() (State, bool) { return s.top() }

// Len returns the number of live states.
func (s *Stack) Len() int { return len(s.states) }

// Update advances the active state by dt.
func (s *Stack) Update(dt time.Duration) error {
	top, ok := s.top()
	if !ok {
		return ErrStackUnderflow
	}
	top.OnUpdate(dt)
	return nil
}

// Render draws the active state.
func (s *Stack) Render() error {
	top, ok := s.top()
	if !ok {
		return ErrStackUnderflow
	}
	top.OnRender()
	return nil
}

// Dispatch delivers ev to the active state. States without an OnEvent
// method ignore events.
func (s *Stack) Dispatch(ev Event) error {
	top, ok := s.top()
	if !ok {
		return ErrStackUnderflow
	}
	if h, ok := top.(EventHandler); ok {
		h.OnEvent(ev)
	}
	return nil
}

// Close unwinds the stack top to bottom, calling OnDestroy and never
// OnThaw. Queued transitions are dropped.
func (s *Stack) Close() {
	for len(s.states) > 0 {
		destroy(s.remove())
	}
	s.next, s.pushing, s.replacing, s.popping = nil, false, false, false
}

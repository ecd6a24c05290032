package log

import (
	"runtime"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// DefaultRingCapacity is the number of records a Console keeps before the
// oldest unread ones are overwritten.
const DefaultRingCapacity = 2048

// maxMessageLen bounds a record's message, matching the fixed-size records
// the console renders.
const maxMessageLen = 255

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Entry is a single log record travelling through a Ring.
type Entry struct {
	Time     time.Time
	Level    Level
	Producer uint32
	Message  string
}

type slot struct {
	busy  atomic.Uint32
	seq   uint64 // write sequence + 1 of the record held, 0 when empty; guarded by busy
	entry Entry
}

func (s *slot) lock() {
	for !s.busy.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
}

func (s *slot) unlock() {
	s.busy.Store(0)
}

// Ring is a fixed-capacity circular buffer of log records for many
// producers and a single consumer. It never blocks a producer for longer
// than a slot copy: when the buffer is full the oldest unread records are
// dropped.
//
// Producers claim a slot with one atomic fetch-and-add on the write
// sequence, so two producers can never claim the same slot.
type Ring struct {
	slots   []slot
	size    uint64
	write   atomic.Uint64
	read    atomic.Uint64
	dropped atomic.Uint64
}

// NewRing returns a Ring holding up to capacity records. A non-positive
// capacity selects DefaultRingCapacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &Ring{
		slots: make([]slot, capacity),
		size:  uint64(capacity),
	}
}

// Push appends e, overwriting the oldest unread record when full. Safe for
// concurrent use.
func (r *Ring) Push(e Entry) {
	if len(e.Message) > maxMessageLen {
		e.Message = truncate(e.Message, maxMessageLen)
	}
	n := r.write.Add(1) - 1
	s := &r.slots[n%r.size]
	s.lock()
	// A producer that claimed a later lap may already own this slot; the
	// newer record wins and ours counts as dropped by the consumer.
	if s.seq <= n {
		s.entry = e
		s.seq = n + 1
	}
	s.unlock()
}

// Pop removes the oldest readable record. It must only be called from one
// goroutine at a time. It reports false when nothing is readable, which
// includes a slot claimed by a producer that has not finished writing it.
func (r *Ring) Pop() (Entry, bool) {
	for {
		rd := r.read.Load()
		w := r.write.Load()
		if rd >= w {
			return Entry{}, false
		}
		if w-rd > r.size {
			r.dropped.Add(w - r.size - rd)
			rd = w - r.size
			r.read.Store(rd)
		}

		s := &r.slots[rd%r.size]
		s.lock()
		seq := s.seq
		if seq == rd+1 {
			e := s.entry
			s.unlock()
			r.read.Store(rd + 1)
			return e, true
		}
		s.unlock()
		if seq < rd+1 {
			return Entry{}, false
		}
		// Lapped between the cursor check and the slot lock; the next pass
		// moves the read cursor past the evicted records.
	}
}

// Len reports how many records are currently readable.
func (r *Ring) Len() int {
	w, rd := r.write.Load(), r.read.Load()
	if rd >= w {
		return 0
	}
	if n := w - rd; n < r.size {
		return int(n)
	}
	return int(r.size)
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int { return int(r.size) }

// Dropped returns the number of records evicted before they were read.
func (r *Ring) Dropped() uint64 { return r.dropped.Load() }

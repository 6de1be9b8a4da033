package record

import (
	"sync/atomic"
	"time"
)

// Stamper hands out strictly increasing millisecond stamps for execution IDs.
//
// Stamps follow wall time, but when two requests land in the same
// millisecond, or the wall clock steps backwards, the stamp is bumped past
// the previous one. IDs therefore stay unique and ordered within a process.
//
// Thread-safety: Stamper is safe for concurrent use (atomic operations).
type Stamper struct {
	last atomic.Int64
}

// Next returns a stamp greater than every stamp returned before and no
// smaller than now in Unix milliseconds.
func (s *Stamper) Next(now time.Time) int64 {
	ms := now.UnixMilli()
	for {
		last := s.last.Load()
		next := ms
		if next <= last {
			next = last + 1
		}
		if s.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

// Current returns the last stamp handed out, or 0.
func (s *Stamper) Current() int64 {
	return s.last.Load()
}

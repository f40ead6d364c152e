package store

import "time"

// Entry is a keyspace record: a value plus an optional expiry deadline
// plus the timestamp of its last touch (read or write).
type Entry struct {
	Value      Value
	Deadline   time.Time // zero value means no TTL (invariant I-1)
	LastTouch  time.Time
}

func (e *Entry) HasDeadline() bool { return !e.Deadline.IsZero() }

func (e *Entry) Expired(now time.Time) bool {
	return e.HasDeadline() && !e.Deadline.After(now)
}

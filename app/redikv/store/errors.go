package store

import "errors"

// Execution error kinds (§7). KeyNotFound and NoAction are internal — they
// never reach the wire as RESP errors; command.Apply translates each to
// the idiomatic reply (Nil, :0, etc).
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrWrongType   = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	ErrOutOfMemory = errors.New("Out of memory")
	ErrNoAction    = errors.New("no action")
)

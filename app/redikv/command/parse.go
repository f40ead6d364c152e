package command

import (
	"strconv"
	"strings"

	"github.com/kvwire/redikv/app/redikv/resp"
)

// args is the already-split frame array a parse closure works from —
// index 0 is the command token itself.
type args []resp.Frame

// nextString extracts a SimpleString or BulkString as a string.
func nextString(f resp.Frame) (string, bool) {
	switch f.Type {
	case resp.TypeSimpleString:
		return f.Str, true
	case resp.TypeBulkString:
		return string(f.Bulk), true
	default:
		return "", false
	}
}

// nextBytes extracts either string variant as raw bytes, never copying
// more than necessary.
func nextBytes(f resp.Frame) ([]byte, bool) {
	switch f.Type {
	case resp.TypeBulkString:
		return f.Bulk, true
	case resp.TypeSimpleString:
		return []byte(f.Str), true
	default:
		return nil, false
	}
}

// nextInteger extracts an Integer frame, or a numeric SimpleString/
// BulkString (RESP arrays of bulk strings are how real clients send
// numbers — there is no wire-level integer argument type).
func nextInteger(f resp.Frame) (int64, bool) {
	if f.Type == resp.TypeInteger {
		return f.Int, true
	}
	s, ok := nextString(f)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

// nextFloat extracts a float64 from any string-shaped frame.
func nextFloat(f resp.Frame) (float64, bool) {
	s, ok := nextString(f)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	return n, err == nil
}

// checkCmd reports whether f's text matches expected, case-insensitively.
func checkCmd(f resp.Frame, expected string) bool {
	s, ok := nextString(f)
	if !ok {
		return false
	}
	return strings.EqualFold(s, expected)
}

// commandName extracts and upper-cases the command token from a raw
// inbound array frame (§4.D registry lookup key).
func commandName(frame resp.Frame) (string, bool) {
	if frame.Type != resp.TypeArray || len(frame.Array) == 0 {
		return "", false
	}
	s, ok := nextString(frame.Array[0])
	if !ok {
		return "", false
	}
	return strings.ToUpper(s), true
}

func toArgs(frame resp.Frame) args {
	return args(frame.Array)
}

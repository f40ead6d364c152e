package resp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleString(t *testing.T) {
	f, n, status := Parse([]byte("+OK\r\n"))
	require.Equal(t, Complete, status)
	assert.Equal(t, 5, n)
	assert.Equal(t, SimpleString("OK"), f)
}

func TestParseBulkString(t *testing.T) {
	f, n, status := Parse([]byte("$5\r\nhello\r\n"))
	require.Equal(t, Complete, status)
	assert.Equal(t, 11, n)
	assert.Equal(t, []byte("hello"), f.Bulk)
}

func TestParseNilBulkString(t *testing.T) {
	f, n, status := Parse([]byte("$-1\r\n"))
	require.Equal(t, Complete, status)
	assert.Equal(t, 5, n)
	assert.True(t, f.IsNil())
}

func TestParseArrayOfBulkStrings(t *testing.T) {
	raw := []byte("*2\r\n$3\r\nGET\r\n$1\r\na\r\n")
	f, n, status := Parse(raw)
	require.Equal(t, Complete, status)
	assert.Equal(t, len(raw), n)
	require.Len(t, f.Array, 2)
	assert.Equal(t, []byte("GET"), f.Array[0].Bulk)
	assert.Equal(t, []byte("a"), f.Array[1].Bulk)
}

func TestParseIncompleteFrames(t *testing.T) {
	cases := [][]byte{
		{},
		[]byte("+OK"),
		[]byte("$5\r\nhel"),
		[]byte("*2\r\n$3\r\nGET\r\n"),
		[]byte(":4"),
	}
	for _, c := range cases {
		_, _, status := Parse(c)
		assert.Equal(t, Incomplete, status, "buf=%q", c)
	}
}

func TestParseMalformed(t *testing.T) {
	cases := [][]byte{
		[]byte("!nope\r\n"),
		[]byte(":notanumber\r\n"),
		[]byte("$3\r\nabXX"),
	}
	for _, c := range cases {
		_, _, status := Parse(c)
		assert.Equal(t, Malformed, status, "buf=%q", c)
	}
}

func TestParseInlineCommand(t *testing.T) {
	f, n, status := Parse([]byte("ping 123 hello\r\n"))
	require.Equal(t, Complete, status)
	assert.Equal(t, 16, n)
	require.Len(t, f.Array, 3)
	assert.Equal(t, SimpleString("ping"), f.Array[0])
	assert.Equal(t, Integer(123), f.Array[1])
	assert.Equal(t, SimpleString("hello"), f.Array[2])
}

func TestParsePrefixOfCompleteFrameIsIncomplete(t *testing.T) {
	full := Serialize(Array(BulkStringFromString("SET"), BulkStringFromString("k"), BulkStringFromString("v")))
	for i := 1; i < len(full); i++ {
		_, _, status := Parse(full[:i])
		assert.Equal(t, Incomplete, status, "prefix len=%d", i)
	}
	_, n, status := Parse(full)
	require.Equal(t, Complete, status)
	assert.Equal(t, len(full), n)
}

func TestSerializeRoundTrip(t *testing.T) {
	frames := []Frame{
		SimpleString("OK"),
		Error("WRONGTYPE bad"),
		Integer(-42),
		BulkString([]byte("payload")),
		Nil(),
		Array(Integer(1), Integer(2), BulkString([]byte("x"))),
	}
	for _, f := range frames {
		raw := Serialize(f)
		assert.Equal(t, len(raw), f.Len())
		parsed, n, status := Parse(raw)
		require.Equal(t, Complete, status)
		assert.Equal(t, len(raw), n)
		assert.Equal(t, f, parsed)
	}
}

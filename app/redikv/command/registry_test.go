package command

import (
	"testing"

	"github.com/kvwire/redikv/app/redikv/resp"
	"github.com/kvwire/redikv/app/redikv/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingWriter captures every frame a Command writes directly, for
// commands (SUBSCRIBE/UNSUBSCRIBE) that bypass the single-reply return.
type recordingWriter struct {
	frames []resp.Frame
}

func (w *recordingWriter) WriteFrame(f resp.Frame) error {
	w.frames = append(w.frames, f)
	return nil
}

func newTestContext(t *testing.T) (*Context, *store.DB) {
	t.Helper()
	db := store.New()
	t.Cleanup(db.Close)
	reg := NewRegistry()
	done := make(chan struct{})
	log := logrus.NewEntry(logrus.New())
	ctx := NewContext(db, reg, &recordingWriter{}, make(chan Inbound), done, log)
	return ctx, db
}

func bulkArray(tokens ...string) resp.Frame {
	items := make([]resp.Frame, len(tokens))
	for i, tok := range tokens {
		items[i] = resp.BulkStringFromString(tok)
	}
	return resp.Array(items...)
}

func apply(t *testing.T, ctx *Context, reg *Registry, tokens ...string) (resp.Frame, error) {
	t.Helper()
	cmd, err := reg.Parse(bulkArray(tokens...))
	require.NoError(t, err)
	return cmd.Apply(ctx)
}

func TestSetGetDelEndToEnd(t *testing.T) {
	ctx, _ := newTestContext(t)
	reg := ctx.Registry

	reply, err := apply(t, ctx, reg, "SET", "k", "v")
	require.NoError(t, err)
	assert.Equal(t, resp.SimpleString("OK"), reply)

	reply, err = apply(t, ctx, reg, "GET", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), reply.Bulk)

	reply, err = apply(t, ctx, reg, "DEL", "k")
	require.NoError(t, err)
	assert.Equal(t, resp.Integer(1), reply)

	reply, err = apply(t, ctx, reg, "GET", "k")
	require.NoError(t, err)
	assert.True(t, reply.IsNil())
}

func TestSetNXRejectsWhenKeyExists(t *testing.T) {
	ctx, _ := newTestContext(t)
	reg := ctx.Registry

	_, err := apply(t, ctx, reg, "SET", "k", "v")
	require.NoError(t, err)

	reply, err := apply(t, ctx, reg, "SET", "k", "v2", "NX")
	require.NoError(t, err)
	assert.True(t, reply.IsNil())
}

func TestSetRejectsConflictingOptions(t *testing.T) {
	ctx, _ := newTestContext(t)
	_, err := ctx.Registry.Parse(bulkArray("SET", "k", "v", "NX", "XX"))
	assert.ErrorIs(t, err, ErrSyntaxError)

	_, err = ctx.Registry.Parse(bulkArray("SET", "k", "v", "EX", "10", "KEEPTTL"))
	assert.ErrorIs(t, err, ErrSyntaxError)
}

func TestWrongTypeScenario(t *testing.T) {
	ctx, db := newTestContext(t)
	reg := ctx.Registry

	_, err := db.LPush("k", []byte("a"))
	require.NoError(t, err)

	reply, err := apply(t, ctx, reg, "GET", "k")
	require.NoError(t, err)
	assert.Equal(t, resp.TypeError, reply.Type)
	assert.Contains(t, reply.Str, "WRONGTYPE")
}

func TestUnknownCommandYieldsError(t *testing.T) {
	ctx, _ := newTestContext(t)
	_, err := ctx.Registry.Parse(bulkArray("NOTACOMMAND"))
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestMalformedFrameIsNotAnArrayOfCommandTokens(t *testing.T) {
	ctx, _ := newTestContext(t)
	_, err := ctx.Registry.Parse(resp.SimpleString("PING"))
	assert.ErrorIs(t, err, ErrInvalidProtocol)
}

func TestZAddEndToEndWithCH(t *testing.T) {
	ctx, _ := newTestContext(t)
	reg := ctx.Registry

	reply, err := apply(t, ctx, reg, "ZADD", "z", "1", "a")
	require.NoError(t, err)
	assert.Equal(t, resp.Integer(1), reply)

	reply, err = apply(t, ctx, reg, "ZADD", "z", "CH", "2", "a")
	require.NoError(t, err)
	assert.Equal(t, resp.Integer(1), reply)

	reply, err = apply(t, ctx, reg, "ZRANGE", "z", "0", "-1", "WITHSCORES")
	require.NoError(t, err)
	require.Len(t, reply.Array, 2)
	assert.Equal(t, []byte("a"), reply.Array[0].Bulk)
}

func TestExpireUnknownKeyRepliesZero(t *testing.T) {
	ctx, _ := newTestContext(t)
	reg := ctx.Registry

	reply, err := apply(t, ctx, reg, "EXPIRE", "nope", "10")
	require.NoError(t, err)
	assert.Equal(t, resp.Integer(0), reply)
}

func TestTTLUnknownKeyIsMinusTwo(t *testing.T) {
	ctx, _ := newTestContext(t)
	reg := ctx.Registry

	reply, err := apply(t, ctx, reg, "TTL", "nope")
	require.NoError(t, err)
	assert.Equal(t, resp.Integer(-2), reply)
}

func TestFlushClearsKeyspace(t *testing.T) {
	ctx, _ := newTestContext(t)
	reg := ctx.Registry

	_, err := apply(t, ctx, reg, "SET", "k", "v")
	require.NoError(t, err)
	_, err = apply(t, ctx, reg, "FLUSH")
	require.NoError(t, err)

	reply, err := apply(t, ctx, reg, "GET", "k")
	require.NoError(t, err)
	assert.True(t, reply.IsNil())
}

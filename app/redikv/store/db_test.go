package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetDelRoundTrip(t *testing.T) {
	db := New()
	defer db.Close()

	res, err := db.Set("k", []byte("v"), SetOptions{})
	require.NoError(t, err)
	assert.True(t, res.Applied)

	got, err := db.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	val, ok := db.Del("k")
	assert.True(t, ok)
	kv, _ := val.KV()
	assert.Equal(t, []byte("v"), kv)

	_, err = db.Get("k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSetNXOnlyAppliesWhenAbsent(t *testing.T) {
	db := New()
	defer db.Close()

	res, err := db.Set("k", []byte("first"), SetOptions{NX: true})
	require.NoError(t, err)
	assert.True(t, res.Applied)

	res, err = db.Set("k", []byte("second"), SetOptions{NX: true})
	require.NoError(t, err)
	assert.False(t, res.Applied)

	got, _ := db.Get("k")
	assert.Equal(t, []byte("first"), got)
}

func TestSetXXOnlyAppliesWhenPresent(t *testing.T) {
	db := New()
	defer db.Close()

	res, err := db.Set("k", []byte("v"), SetOptions{XX: true})
	require.NoError(t, err)
	assert.False(t, res.Applied)

	_, err = db.Set("k", []byte("v"), SetOptions{})
	require.NoError(t, err)
	res, err = db.Set("k", []byte("v2"), SetOptions{XX: true})
	require.NoError(t, err)
	assert.True(t, res.Applied)
}

func TestSetWithDeadlineExpires(t *testing.T) {
	db := New()
	defer db.Close()
	now := time.Now()
	db.now = func() time.Time { return now }

	_, err := db.Set("k", []byte("v"), SetOptions{Deadline: now.Add(time.Second)})
	require.NoError(t, err)

	got, err := db.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(2 * time.Second)
	db.now = func() time.Time { return now }

	_, err = db.Get("k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSetKeepTTLPreservesExistingDeadline(t *testing.T) {
	db := New()
	defer db.Close()
	now := time.Now()
	db.now = func() time.Time { return now }

	deadline := now.Add(time.Minute)
	_, err := db.Set("k", []byte("v"), SetOptions{Deadline: deadline})
	require.NoError(t, err)

	_, err = db.Set("k", []byte("v2"), SetOptions{KeepTTL: true})
	require.NoError(t, err)

	ttl, err := db.TTL("k")
	require.NoError(t, err)
	assert.InDelta(t, 60, ttl, 1)
}

func TestGetWrongTypeOnListKey(t *testing.T) {
	db := New()
	defer db.Close()

	_, err := db.LPush("k", []byte("a"))
	require.NoError(t, err)

	_, err = db.Get("k")
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestLPushLRangeOrdering(t *testing.T) {
	db := New()
	defer db.Close()

	n, err := db.LPush("list", []byte("a"), []byte("b"), []byte("c"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Each value is pushed to the head in turn, so the final order is the
	// reverse of the call's argument order.
	vals, err := db.LRange("list", 0, -1)
	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.Equal(t, []byte("c"), vals[0])
	assert.Equal(t, []byte("b"), vals[1])
	assert.Equal(t, []byte("a"), vals[2])
}

func TestLRangeMissingKeyIsEmptyNotError(t *testing.T) {
	db := New()
	defer db.Close()

	vals, err := db.LRange("nope", 0, -1)
	require.NoError(t, err)
	assert.Nil(t, vals)
}

func TestExpireUnknownKeyReturnsKeyNotFound(t *testing.T) {
	db := New()
	defer db.Close()

	err := db.Expire("nope", time.Now().Add(time.Minute))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestTTLNoDeadlineReturnsMinusOne(t *testing.T) {
	db := New()
	defer db.Close()

	_, err := db.Set("k", []byte("v"), SetOptions{})
	require.NoError(t, err)

	ttl, err := db.TTL("k")
	require.NoError(t, err)
	assert.EqualValues(t, -1, ttl)
}

func TestPersistClearsDeadline(t *testing.T) {
	db := New()
	defer db.Close()

	_, err := db.Set("k", []byte("v"), SetOptions{Deadline: time.Now().Add(time.Minute)})
	require.NoError(t, err)

	had, err := db.Persist("k")
	require.NoError(t, err)
	assert.True(t, had)

	ttl, err := db.TTL("k")
	require.NoError(t, err)
	assert.EqualValues(t, -1, ttl)
}

func TestHashOperations(t *testing.T) {
	db := New()
	defer db.Close()

	n, err := db.HSet("h", map[string][]byte{"f1": []byte("v1")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Re-setting an existing field does not count as a new insertion.
	n, err = db.HSet("h", map[string][]byte{"f1": []byte("v1b"), "f2": []byte("v2")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	v, err := db.HGet("h", "f1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1b"), v)

	length, err := db.HLen("h")
	require.NoError(t, err)
	assert.Equal(t, 2, length)

	removed, err := db.HDel("h", "f1", "missing")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestSetOperations(t *testing.T) {
	db := New()
	defer db.Close()

	added, err := db.SAdd("s", "a", "b", "a")
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	ok, err := db.SIsMember("s", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	card, err := db.SCard("s")
	require.NoError(t, err)
	assert.Equal(t, 2, card)

	removed, err := db.SRem("s", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestWrongTypeAcrossKinds(t *testing.T) {
	db := New()
	defer db.Close()

	_, err := db.Set("k", []byte("v"), SetOptions{})
	require.NoError(t, err)

	_, err = db.HSet("k", map[string][]byte{"f": []byte("v")})
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = db.SAdd("k", "m")
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestFlushClearsKeyspaceButKeepsPubsub(t *testing.T) {
	db := New()
	defer db.Close()

	_, err := db.Set("k", []byte("v"), SetOptions{})
	require.NoError(t, err)
	sub := db.Subscribe("chan")
	defer db.Unsubscribe(sub)

	db.Flush()

	_, err = db.Get("k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Equal(t, 0, db.Size())
	assert.Equal(t, 1, db.SubscriberCount("chan"))
}

func TestPublishWithNoSubscribersReturnsZero(t *testing.T) {
	db := New()
	defer db.Close()

	delivered := db.Publish("nobody-home", []byte("hi"))
	assert.Equal(t, 0, delivered)
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	db := New()
	defer db.Close()

	sub := db.Subscribe("chan")
	defer db.Unsubscribe(sub)

	delivered := db.Publish("chan", []byte("hi"))
	assert.Equal(t, 1, delivered)

	msg := <-sub.Receive()
	assert.Equal(t, "chan", msg.Channel)
	assert.Equal(t, []byte("hi"), msg.Payload)
}

func TestReaperCollectsExpiredKeys(t *testing.T) {
	db := New()
	defer db.Close()
	now := time.Now()
	db.now = func() time.Time { return now }

	_, err := db.Set("k", []byte("v"), SetOptions{Deadline: now.Add(10 * time.Millisecond)})
	require.NoError(t, err)

	now = now.Add(20 * time.Millisecond)
	db.now = func() time.Time { return now }
	db.wakeReaper()

	require.Eventually(t, func() bool {
		return db.ExpiredCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestGetTypeReportsKindOrNone(t *testing.T) {
	db := New()
	defer db.Close()

	assert.Equal(t, "none", db.GetType("nope"))

	_, err := db.Set("k", []byte("v"), SetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "string", db.GetType("k"))
}

func TestBloomFilterAddExists(t *testing.T) {
	db := New()
	defer db.Close()

	added, err := db.BFAdd("bf", "a")
	require.NoError(t, err)
	assert.True(t, added)

	exists, err := db.BFExists("bf", "a")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = db.BFExists("bf", "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

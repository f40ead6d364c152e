package store

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/alphadose/haxmap"
)

// DB is the shared, mutable datastore (§4.C). All mutation and
// cross-structure reads go through mu, held for the duration of a single
// operation and never across an I/O await (§5) — the keyspace itself is
// a concurrent map (haxmap) but mu still guards it so the keyspace,
// the TTL index and the pub/sub registry move together, preserving
// I-1/I-2/I-3.
type DB struct {
	mu sync.Mutex

	keyspace *haxmap.Map[string, *Entry]
	ttl      *ttlIndex
	pubsub   *pubsubRegistry

	notify chan struct{} // one-shot wake for the reaper
	done   chan struct{}
	closed sync.Once

	now func() time.Time // overridable for tests

	expiredTotal atomic.Int64 // keys the reaper has collected, for metrics
}

// New constructs an empty DB and starts its background reaper.
func New() *DB {
	db := &DB{
		keyspace: haxmap.New[string, *Entry](),
		ttl:      newTTLIndex(),
		pubsub:   newPubsubRegistry(),
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	go db.reap()
	return db
}

// Close notifies the reaper to exit (§3 "a scope guard notifies the
// reaper on drop to exit"). Safe to call more than once.
func (db *DB) Close() {
	db.closed.Do(func() { close(db.done) })
}

func (db *DB) wakeReaper() {
	select {
	case db.notify <- struct{}{}:
	default:
	}
}

// reap is the single background task described in §4.C.
func (db *DB) reap() {
	for {
		var sleepUntil time.Time
		var haveDeadline bool

		db.mu.Lock()
		expired := db.ttl.popExpired(db.now())
		for _, key := range expired {
			db.keyspace.Del(key)
		}
		sleepUntil, haveDeadline = db.ttl.nextDeadline()
		db.mu.Unlock()
		db.expiredTotal.Add(int64(len(expired)))

		var timer *time.Timer
		var timerC <-chan time.Time
		if haveDeadline {
			d := sleepUntil.Sub(db.now())
			if d < 0 {
				d = 0
			}
			timer = time.NewTimer(d)
			timerC = timer.C
		}

		select {
		case <-db.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-db.notify:
			if timer != nil {
				timer.Stop()
			}
		case <-timerC:
		}
	}
}

// lazyExpireLocked removes key if its entry has passed its deadline, returning
// (entry, true) when it was live, or (nil, false) when absent or just
// expired. Must be called with mu held.
func (db *DB) lazyExpireLocked(key string) (*Entry, bool) {
	entry, ok := db.keyspace.Get(key)
	if !ok {
		return nil, false
	}
	if entry.Expired(db.now()) {
		db.keyspace.Del(key)
		db.ttl.remove(key, entry.Deadline)
		return nil, false
	}
	return entry, true
}

func (db *DB) touchLocked(entry *Entry) {
	entry.LastTouch = db.now()
}

// Get returns the KV bytes for key, touching its last-access time.
func (db *DB) Get(key string) ([]byte, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.lazyExpireLocked(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	kv, err := entry.Value.KV()
	if err != nil {
		return nil, err
	}
	db.touchLocked(entry)
	out := append([]byte(nil), kv...)
	return out, nil
}

// SetOptions mirrors the SET option grammar (§4.D).
type SetOptions struct {
	NX, XX   bool
	Get      bool
	KeepTTL  bool
	Deadline time.Time // zero means no expiry
}

// SetResult is what Set reports back to the command layer.
type SetResult struct {
	Applied  bool
	Previous []byte // only meaningful when opts.Get was set
	HadPrev  bool
}

// Set implements §4.C "set". Write paths do not check liveness of the
// prior entry: a plain SET always overwrites regardless of any existing
// deadline (lazy expiry is a read-path concern only).
func (db *DB) Set(key string, value []byte, opts SetOptions) (SetResult, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	existing, hasExisting := db.keyspace.Get(key)
	var prevKV []byte
	var prevIsKV bool
	if hasExisting {
		if kv, err := existing.Value.KV(); err == nil {
			prevKV = append([]byte(nil), kv...)
			prevIsKV = true
		}
	}

	if opts.NX && hasExisting {
		return SetResult{Applied: false, Previous: prevKV, HadPrev: prevIsKV}, nil
	}
	if opts.XX && !hasExisting {
		return SetResult{Applied: false, Previous: prevKV, HadPrev: prevIsKV}, nil
	}
	if opts.Get && hasExisting && !prevIsKV {
		return SetResult{}, ErrWrongType
	}

	deadline := opts.Deadline
	if opts.KeepTTL && hasExisting {
		deadline = existing.Deadline
	}
	if hasExisting && existing.HasDeadline() {
		db.ttl.remove(key, existing.Deadline)
	}

	entry := &Entry{Value: NewKV(append([]byte(nil), value...)), Deadline: deadline, LastTouch: db.now()}
	db.keyspace.Set(key, entry)
	if entry.HasDeadline() {
		db.ttl.set(key, deadline)
		db.maybeWakeReaperLocked(deadline)
	}

	return SetResult{Applied: true, Previous: prevKV, HadPrev: prevIsKV}, nil
}

// maybeWakeReaperLocked notifies the reaper when the new deadline is
// sooner than whatever it's currently sleeping toward. Called with mu
// held; the actual channel send happens after releasing mu would be
// ideal, but a buffered, non-blocking notify channel never blocks, so
// signaling under the lock is safe and keeps the call site simple.
func (db *DB) maybeWakeReaperLocked(deadline time.Time) {
	next, ok := db.ttl.nextDeadline()
	if !ok || !next.Equal(deadline) {
		return
	}
	db.wakeReaper()
}

// Del removes key, returning the removed value if any.
func (db *DB) Del(key string) (Value, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.keyspace.Get(key)
	if !ok {
		return Value{}, false
	}
	db.keyspace.Del(key)
	if entry.HasDeadline() {
		db.ttl.remove(key, entry.Deadline)
	}
	return entry.Value, true
}

// Expire sets key's deadline. Returns ErrKeyNotFound if key is absent —
// per §9's resolved Open Question, the command layer (not this method)
// is responsible for turning that into EXPIRE's ":0" reply.
func (db *DB) Expire(key string, deadline time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.lazyExpireLocked(key)
	if !ok {
		return ErrKeyNotFound
	}
	if entry.HasDeadline() {
		db.ttl.remove(key, entry.Deadline)
	}
	entry.Deadline = deadline
	db.ttl.set(key, deadline)
	db.maybeWakeReaperLocked(deadline)
	return nil
}

// TTL returns seconds remaining, -1 if no TTL, or ErrKeyNotFound if
// absent.
func (db *DB) TTL(key string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.lazyExpireLocked(key)
	if !ok {
		return 0, ErrKeyNotFound
	}
	if !entry.HasDeadline() {
		return -1, nil
	}
	remaining := entry.Deadline.Sub(db.now())
	if remaining < 0 {
		remaining = 0
	}
	return int64(remaining.Seconds()), nil
}

// Persist clears key's deadline, returning whether it had one.
func (db *DB) Persist(key string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.lazyExpireLocked(key)
	if !ok {
		return false, ErrKeyNotFound
	}
	if !entry.HasDeadline() {
		return false, nil
	}
	db.ttl.remove(key, entry.Deadline)
	entry.Deadline = time.Time{}
	return true, nil
}

// getOrCreateLocked fetches key's live entry, creating one from makeValue
// if absent. It does not compare the existing entry's kind; callers check
// Value.Type themselves and return ErrWrongType on a mismatch (I-2).
func (db *DB) getOrCreateLocked(key string, makeValue func() Value) (*Entry, error) {
	entry, ok := db.lazyExpireLocked(key)
	if ok {
		return entry, nil
	}
	entry = &Entry{Value: makeValue(), LastTouch: db.now()}
	db.keyspace.Set(key, entry)
	return entry, nil
}

func (db *DB) getLiveLocked(key string) (*Entry, bool) {
	return db.lazyExpireLocked(key)
}

// LPush implements §4.C "lpush".
func (db *DB) LPush(key string, values ...[]byte) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		entry = &Entry{Value: NewList(nil), LastTouch: db.now()}
		db.keyspace.Set(key, entry)
	} else if entry.Value.Type != TypeList {
		return 0, ErrWrongType
	}
	n, err := entry.Value.LeftPush(values...)
	if err != nil {
		return 0, err
	}
	db.touchLocked(entry)
	return n, nil
}

// LRange implements §4.C "lrange" with the normalization rule of §4.C.
// A missing key yields an empty slice, never an error.
func (db *DB) LRange(key string, start, stop int) ([][]byte, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return nil, nil
	}
	list, err := entry.Value.List()
	if err != nil {
		return nil, err
	}
	db.touchLocked(entry)

	s, e, ok2 := normalizeRange(start, stop, len(list))
	if !ok2 {
		return nil, nil
	}
	out := make([][]byte, e-s+1)
	for i := s; i <= e; i++ {
		out[i-s] = append([]byte(nil), list[i]...)
	}
	return out, nil
}

// HSet implements §4.C "hset", returning the count of newly inserted
// fields (fields that already existed and were merely overwritten do not
// count, matching real Redis HSET semantics).
func (db *DB) HSet(key string, pairs map[string][]byte) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, err := db.getOrCreateLocked(key, NewHash)
	if err != nil {
		return 0, err
	}
	if entry.Value.Type != TypeHash {
		return 0, ErrWrongType
	}
	hash, _ := entry.Value.Hash()
	inserted := 0
	for field, value := range pairs {
		if _, exists := hash[field]; !exists {
			inserted++
		}
		hash[field] = append([]byte(nil), value...)
	}
	db.touchLocked(entry)
	return inserted, nil
}

// HGet implements §4.C "hget".
func (db *DB) HGet(key, field string) ([]byte, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	hash, err := entry.Value.Hash()
	if err != nil {
		return nil, err
	}
	db.touchLocked(entry)
	v, ok := hash[field]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// HDel removes fields from a hash, returning the count removed.
func (db *DB) HDel(key string, fields ...string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return 0, nil
	}
	hash, err := entry.Value.Hash()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range fields {
		if _, ok := hash[f]; ok {
			delete(hash, f)
			removed++
		}
	}
	db.touchLocked(entry)
	return removed, nil
}

// HGetAll returns a flattened field/value slice.
func (db *DB) HGetAll(key string) ([][]byte, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return nil, nil
	}
	hash, err := entry.Value.Hash()
	if err != nil {
		return nil, err
	}
	db.touchLocked(entry)
	out := make([][]byte, 0, len(hash)*2)
	for field, value := range hash {
		out = append(out, []byte(field), append([]byte(nil), value...))
	}
	return out, nil
}

// HLen returns the field count of a hash.
func (db *DB) HLen(key string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return 0, nil
	}
	hash, err := entry.Value.Hash()
	if err != nil {
		return 0, err
	}
	db.touchLocked(entry)
	return len(hash), nil
}

// SAdd implements the Set value kind's add operation.
func (db *DB) SAdd(key string, members ...string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, err := db.getOrCreateLocked(key, NewSet)
	if err != nil {
		return 0, err
	}
	if entry.Value.Type != TypeSet {
		return 0, ErrWrongType
	}
	set, _ := entry.Value.Set()
	added := 0
	for _, m := range members {
		if _, exists := set[m]; !exists {
			set[m] = struct{}{}
			added++
		}
	}
	db.touchLocked(entry)
	return added, nil
}

func (db *DB) SRem(key string, members ...string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return 0, nil
	}
	set, err := entry.Value.Set()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range members {
		if _, ok := set[m]; ok {
			delete(set, m)
			removed++
		}
	}
	db.touchLocked(entry)
	return removed, nil
}

func (db *DB) SIsMember(key, member string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return false, nil
	}
	set, err := entry.Value.Set()
	if err != nil {
		return false, err
	}
	db.touchLocked(entry)
	_, exists := set[member]
	return exists, nil
}

func (db *DB) SMembers(key string) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return nil, nil
	}
	set, err := entry.Value.Set()
	if err != nil {
		return nil, err
	}
	db.touchLocked(entry)
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	return out, nil
}

func (db *DB) SCard(key string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return 0, nil
	}
	set, err := entry.Value.Set()
	if err != nil {
		return 0, err
	}
	return len(set), nil
}

// ZAdd implements §4.B's zadd against key's ZSet, creating it if absent.
func (db *DB) ZAdd(key string, opts AddOptions, score float64, member []byte) (float64, bool, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, err := db.getOrCreateLocked(key, NewZSet)
	if err != nil {
		return 0, false, false, err
	}
	if entry.Value.Type != TypeZSet {
		return 0, false, false, ErrWrongType
	}
	zset, _ := entry.Value.ZSet()
	resultScore, inserted, updated := zset.Add(opts, score, member)
	db.touchLocked(entry)
	return resultScore, inserted, updated, nil
}

func (db *DB) ZCard(key string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return 0, nil
	}
	zset, err := entry.Value.ZSet()
	if err != nil {
		return 0, err
	}
	return zset.Card(), nil
}

func (db *DB) ZRem(key string, members ...[]byte) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return 0, nil
	}
	zset, err := entry.Value.ZSet()
	if err != nil {
		return 0, err
	}
	n := zset.Rem(members...)
	db.touchLocked(entry)
	return n, nil
}

func (db *DB) ZRange(key string, start, stop int) ([]Member, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return nil, nil
	}
	zset, err := entry.Value.ZSet()
	if err != nil {
		return nil, err
	}
	return zset.Range(start, stop), nil
}

// BFAdd implements the bloom-filter add operation, creating the filter
// (with default sizing, §1's "fixed capacity") if the key is absent.
func (db *DB) BFAdd(key, member string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		bf, err := NewBloomFilter(DefaultBloomCapacity, DefaultBloomFalsePositiveRate)
		if err != nil {
			return false, err
		}
		entry = &Entry{Value: NewBloomFilterValue(bf), LastTouch: db.now()}
		db.keyspace.Set(key, entry)
	}
	if entry.Value.Type != TypeBloomFilter {
		return false, ErrWrongType
	}
	bf, _ := entry.Value.Bloom()
	added := bf.Add(member)
	db.touchLocked(entry)
	return added, nil
}

func (db *DB) BFExists(key, member string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return false, nil
	}
	bf, err := entry.Value.Bloom()
	if err != nil {
		return false, err
	}
	db.touchLocked(entry)
	return bf.Exists(member), nil
}

// GetType returns the value kind name for key, or "none" if absent.
func (db *DB) GetType(key string) string {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return "none"
	}
	return entry.Value.Type.String()
}

// GetObjectLastTouch returns the last-touch timestamp for key, if live.
func (db *DB) GetObjectLastTouch(key string) (time.Time, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.getLiveLocked(key)
	if !ok {
		return time.Time{}, false
	}
	return entry.LastTouch, true
}

// Flush clears the keyspace and expiry index; the publisher map is
// preserved (§4.C).
func (db *DB) Flush() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.keyspace = haxmap.New[string, *Entry]()
	db.ttl.clear()
}

// Size reports the current key count (used by INFO/metrics).
func (db *DB) Size() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return int(db.keyspace.Len())
}

// ExpiredCount reports the lifetime count of keys the reaper has
// collected (used by metrics).
func (db *DB) ExpiredCount() int64 {
	return db.expiredTotal.Load()
}

// Subscribe/Unsubscribe/Publish expose the pub/sub registry (§4.C).
func (db *DB) Subscribe(channel string) *Subscription {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.pubsub.subscribe(channel)
}

func (db *DB) Unsubscribe(sub *Subscription) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.pubsub.unsubscribe(sub)
}

func (db *DB) Publish(channel string, payload []byte) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.pubsub.publish(channel, payload)
}

func (db *DB) SubscriberCount(channel string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.pubsub.subscriberCount(channel)
}

package store

import (
	"time"

	"github.com/google/btree"
)

// deadlineKey is one element of the TTL index: an ordered (deadline, key)
// pair, ordered by deadline then key (§3 "Expiry index").
type deadlineKey struct {
	deadline time.Time
	key      string
}

func lessDeadlineKey(a, b deadlineKey) bool {
	if !a.deadline.Equal(b.deadline) {
		return a.deadline.Before(b.deadline)
	}
	return a.key < b.key
}

// ttlIndex is the ordered set of (deadline, key) pairs backing the
// reaper: a B-tree gives O(log n) insert/delete and lets the reaper walk
// the expired prefix in deadline order without a full scan.
type ttlIndex struct {
	tree *btree.BTreeG[deadlineKey]
}

func newTTLIndex() *ttlIndex {
	return &ttlIndex{tree: btree.NewG(32, lessDeadlineKey)}
}

func (t *ttlIndex) set(key string, deadline time.Time) {
	t.tree.ReplaceOrInsert(deadlineKey{deadline: deadline, key: key})
}

func (t *ttlIndex) remove(key string, deadline time.Time) {
	t.tree.Delete(deadlineKey{deadline: deadline, key: key})
}

// popExpired removes and returns every (deadline, key) pair whose
// deadline is at or before now, in deadline order.
func (t *ttlIndex) popExpired(now time.Time) []string {
	var expired []deadlineKey
	t.tree.Ascend(func(item deadlineKey) bool {
		if item.deadline.After(now) {
			return false
		}
		expired = append(expired, item)
		return true
	})
	keys := make([]string, len(expired))
	for i, item := range expired {
		keys[i] = item.key
		t.tree.Delete(item)
	}
	return keys
}

// nextDeadline returns the earliest deadline still in the index.
func (t *ttlIndex) nextDeadline() (time.Time, bool) {
	min, ok := t.tree.Min()
	if !ok {
		return time.Time{}, false
	}
	return min.deadline, true
}

func (t *ttlIndex) clear() {
	t.tree.Clear(false)
}

package store

import (
	"crypto/rand"

	"github.com/yawning/bloom"
)

// DefaultBloomCapacity and DefaultBloomFalsePositiveRate size a freshly
// created BF.ADD key when the caller doesn't specify otherwise — the
// spec treats capacity/false-positive parameters as fixed at creation,
// so only this command-layer default matters for commands that never
// expose a BF.RESERVE.
const (
	DefaultBloomCapacity          = 100_000
	DefaultBloomFalsePositiveRate = 0.01
)

// BloomFilter wraps the opaque add/check bit-array collaborator the spec
// treats as out of core scope (§1). Capacity and false-positive
// parameters are fixed for the lifetime of the filter.
type BloomFilter struct {
	filter *bloom.Filter
}

// NewBloomFilter sizes a filter for n expected elements at the given
// false-positive rate. bloom.New draws a SipHash key from rand.Reader at
// construction time, so it can fail if that source is exhausted.
func NewBloomFilter(n int, falsePositiveRate float64) (*BloomFilter, error) {
	filter, err := bloom.New(rand.Reader, n, falsePositiveRate)
	if err != nil {
		return nil, err
	}
	return &BloomFilter{filter: filter}, nil
}

// Add inserts a member, returning true if it was newly added and false if
// it was already (probably) present before the insert — mirroring BF.ADD's
// reply of "0 if the item was already in the filter, 1 if it was newly
// added".
func (b *BloomFilter) Add(member string) bool {
	return !b.filter.TestAndSet([]byte(member))
}

// Exists reports whether member is (probably) present.
func (b *BloomFilter) Exists(member string) bool {
	return b.filter.Test([]byte(member))
}

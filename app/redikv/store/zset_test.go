package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZAddNewMemberIsInserted(t *testing.T) {
	z := NewZSetStore()

	score, inserted, updated := z.Add(AddOptions{}, 5, []byte("m"))
	assert.Equal(t, 5.0, score)
	assert.True(t, inserted)
	assert.False(t, updated)
	assert.Equal(t, 1, z.Card())
}

func TestZAddNXSkipsExistingMember(t *testing.T) {
	z := NewZSetStore()
	z.Add(AddOptions{}, 1, []byte("m"))

	score, inserted, updated := z.Add(AddOptions{NX: true}, 99, []byte("m"))
	assert.Equal(t, 1.0, score)
	assert.False(t, inserted)
	assert.False(t, updated)
}

func TestZAddXXSkipsMissingMember(t *testing.T) {
	z := NewZSetStore()

	score, inserted, updated := z.Add(AddOptions{XX: true}, 1, []byte("m"))
	assert.Equal(t, 0.0, score)
	assert.False(t, inserted)
	assert.False(t, updated)
	assert.Equal(t, 0, z.Card())
}

func TestZAddGTOnlyRaisesScore(t *testing.T) {
	z := NewZSetStore()
	z.Add(AddOptions{}, 5, []byte("m"))

	// Lower score is blocked.
	score, inserted, updated := z.Add(AddOptions{GT: true}, 3, []byte("m"))
	assert.Equal(t, 5.0, score)
	assert.False(t, inserted)
	assert.False(t, updated)

	// Higher score goes through.
	score, inserted, updated = z.Add(AddOptions{GT: true}, 10, []byte("m"))
	assert.Equal(t, 10.0, score)
	assert.False(t, inserted)
	assert.True(t, updated)
}

func TestZAddLTOnlyLowersScore(t *testing.T) {
	z := NewZSetStore()
	z.Add(AddOptions{}, 5, []byte("m"))

	score, inserted, updated := z.Add(AddOptions{LT: true}, 10, []byte("m"))
	assert.Equal(t, 5.0, score)
	assert.False(t, inserted)
	assert.False(t, updated)

	score, inserted, updated = z.Add(AddOptions{LT: true}, 1, []byte("m"))
	assert.Equal(t, 1.0, score)
	assert.False(t, inserted)
	assert.True(t, updated)
}

func TestZAddCHReportsUpdateOnScoreChange(t *testing.T) {
	z := NewZSetStore()
	z.Add(AddOptions{}, 1, []byte("m"))

	_, inserted, updated := z.Add(AddOptions{CH: true}, 2, []byte("m"))
	assert.False(t, inserted)
	assert.True(t, updated)

	// Re-applying the same score is not a change.
	_, inserted, updated = z.Add(AddOptions{CH: true}, 2, []byte("m"))
	assert.False(t, inserted)
	assert.False(t, updated)
}

func TestZAddIncrAccumulatesScore(t *testing.T) {
	z := NewZSetStore()
	z.Add(AddOptions{}, 5, []byte("m"))

	score, inserted, updated := z.Add(AddOptions{Incr: true}, 3, []byte("m"))
	assert.Equal(t, 8.0, score)
	assert.False(t, inserted)
	assert.True(t, updated)
}

func TestZAddIncrBlockedByNXReportsNeither(t *testing.T) {
	z := NewZSetStore()
	z.Add(AddOptions{}, 5, []byte("m"))

	_, inserted, updated := z.Add(AddOptions{Incr: true, NX: true}, 3, []byte("m"))
	assert.False(t, inserted)
	assert.False(t, updated)
}

func TestZRangeOrdersByScoreThenMember(t *testing.T) {
	z := NewZSetStore()
	z.Add(AddOptions{}, 2, []byte("b"))
	z.Add(AddOptions{}, 1, []byte("z"))
	z.Add(AddOptions{}, 2, []byte("a"))

	members := z.Range(0, -1)
	require := []string{"z", "a", "b"}
	for i, want := range require {
		assert.Equal(t, want, string(members[i].Member))
	}
}

func TestZRemRemovesMember(t *testing.T) {
	z := NewZSetStore()
	z.Add(AddOptions{}, 1, []byte("m"))

	n := z.Rem([]byte("m"), []byte("missing"))
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, z.Card())
}

func TestZRangeOnEmptySetIsNil(t *testing.T) {
	z := NewZSetStore()
	assert.Nil(t, z.Range(0, -1))
}

// Package store implements the shared, mutable datastore: the typed
// keyspace, the TTL index and its background reaper, and the pub/sub
// channel registry.
package store

// ValueType tags the kind of a Value. Per invariant I-2, the kind of a
// key's value never changes for the lifetime of that key.
type ValueType int

const (
	TypeKV ValueType = iota
	TypeList
	TypeSet
	TypeHash
	TypeZSet
	TypeBloomFilter
)

func (t ValueType) String() string {
	switch t {
	case TypeKV:
		return "string"
	case TypeList:
		return "list"
	case TypeSet:
		return "set"
	case TypeHash:
		return "hash"
	case TypeZSet:
		return "zset"
	case TypeBloomFilter:
		return "bloomfilter"
	default:
		return "unknown"
	}
}

// Value is the tagged union of every value kind a key can hold. Only the
// field matching Type is meaningful; accessors on the wrong variant
// return ErrWrongType so callers can map it to the RESP WRONGTYPE error.
type Value struct {
	Type ValueType

	kv   []byte
	list [][]byte
	set  map[string]struct{}
	hash map[string][]byte
	zset *ZSet
	bf   *BloomFilter
}

func NewKV(b []byte) Value        { return Value{Type: TypeKV, kv: b} }
func NewList(items [][]byte) Value { return Value{Type: TypeList, list: items} }
func NewSet() Value               { return Value{Type: TypeSet, set: map[string]struct{}{}} }
func NewHash() Value              { return Value{Type: TypeHash, hash: map[string][]byte{}} }
func NewZSet() Value              { return Value{Type: TypeZSet, zset: NewZSetStore()} }
func NewBloomFilterValue(bf *BloomFilter) Value {
	return Value{Type: TypeBloomFilter, bf: bf}
}

func (v *Value) KV() ([]byte, error) {
	if v.Type != TypeKV {
		return nil, ErrWrongType
	}
	return v.kv, nil
}

func (v *Value) SetKV(b []byte) error {
	if v.Type != TypeKV {
		return ErrWrongType
	}
	v.kv = b
	return nil
}

func (v *Value) List() ([][]byte, error) {
	if v.Type != TypeList {
		return nil, ErrWrongType
	}
	return v.list, nil
}

func (v *Value) LeftPush(items ...[]byte) (int, error) {
	if v.Type != TypeList {
		return 0, ErrWrongType
	}
	for _, item := range items {
		v.list = append([][]byte{item}, v.list...)
	}
	return len(v.list), nil
}

func (v *Value) Set() (map[string]struct{}, error) {
	if v.Type != TypeSet {
		return nil, ErrWrongType
	}
	return v.set, nil
}

func (v *Value) Hash() (map[string][]byte, error) {
	if v.Type != TypeHash {
		return nil, ErrWrongType
	}
	return v.hash, nil
}

func (v *Value) ZSet() (*ZSet, error) {
	if v.Type != TypeZSet {
		return nil, ErrWrongType
	}
	return v.zset, nil
}

func (v *Value) Bloom() (*BloomFilter, error) {
	if v.Type != TypeBloomFilter {
		return nil, ErrWrongType
	}
	return v.bf, nil
}

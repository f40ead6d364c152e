package command

import (
	"strings"
	"time"

	"github.com/kvwire/redikv/app/redikv/resp"
	"github.com/kvwire/redikv/app/redikv/store"
)

type delCmd struct{ keys []string }

func parseDel(a args) (Command, error) {
	if len(a) < 2 {
		return nil, wrongNumberOfArgs("del")
	}
	keys := make([]string, 0, len(a)-1)
	for _, f := range a[1:] {
		k, ok := nextString(f)
		if !ok {
			return nil, ErrInvalidProtocol
		}
		keys = append(keys, k)
	}
	return &delCmd{keys: keys}, nil
}

func (c *delCmd) Apply(ctx *Context) (resp.Frame, error) {
	removed := 0
	for _, key := range c.keys {
		if _, ok := ctx.DB.Del(key); ok {
			removed++
		}
	}
	return resp.Integer(int64(removed)), nil
}

type expireCmd struct {
	key     string
	seconds int64
}

func parseExpire(a args) (Command, error) {
	if len(a) != 3 {
		return nil, wrongNumberOfArgs("expire")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	seconds, ok := nextInteger(a[2])
	if !ok {
		return nil, ErrInvalidArgument
	}
	return &expireCmd{key: key, seconds: seconds}, nil
}

// Apply maps a missing key to Integer(0) rather than propagating
// ErrKeyNotFound — the resolved reading of the source's EXPIRE-on-missing
// behavior (store.DB.Expire reports the error; this layer absorbs it).
func (c *expireCmd) Apply(ctx *Context) (resp.Frame, error) {
	deadline := time.Now().Add(time.Duration(c.seconds) * time.Second)
	err := ctx.DB.Expire(c.key, deadline)
	if err == store.ErrKeyNotFound {
		return resp.Integer(0), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	return resp.Integer(1), nil
}

type ttlCmd struct{ key string }

func parseTTL(a args) (Command, error) {
	if len(a) != 2 {
		return nil, wrongNumberOfArgs("ttl")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &ttlCmd{key: key}, nil
}

func (c *ttlCmd) Apply(ctx *Context) (resp.Frame, error) {
	seconds, err := ctx.DB.TTL(c.key)
	if err == store.ErrKeyNotFound {
		return resp.Integer(-2), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	return resp.Integer(seconds), nil
}

type persistCmd struct{ key string }

func parsePersist(a args) (Command, error) {
	if len(a) != 2 {
		return nil, wrongNumberOfArgs("persist")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &persistCmd{key: key}, nil
}

func (c *persistCmd) Apply(ctx *Context) (resp.Frame, error) {
	had, err := ctx.DB.Persist(c.key)
	if err == store.ErrKeyNotFound {
		return resp.Integer(0), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	if had {
		return resp.Integer(1), nil
	}
	return resp.Integer(0), nil
}

type typeCmd struct{ key string }

func parseType(a args) (Command, error) {
	if len(a) != 2 {
		return nil, wrongNumberOfArgs("type")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &typeCmd{key: key}, nil
}

func (c *typeCmd) Apply(ctx *Context) (resp.Frame, error) {
	return resp.SimpleString(ctx.DB.GetType(c.key)), nil
}

type objectCmd struct {
	sub string
	key string
}

func parseObject(a args) (Command, error) {
	if len(a) != 3 {
		return nil, wrongNumberOfArgs("object")
	}
	sub, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	key, ok := nextString(a[2])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &objectCmd{sub: sub, key: key}, nil
}

func (c *objectCmd) Apply(ctx *Context) (resp.Frame, error) {
	switch strings.ToUpper(c.sub) {
	case "ENCODING":
		kind := ctx.DB.GetType(c.key)
		if kind == "none" {
			return resp.Nil(), nil
		}
		return resp.SimpleString(encodingName(kind)), nil
	case "IDLETIME":
		last, ok := ctx.DB.GetObjectLastTouch(c.key)
		if !ok {
			return resp.Nil(), nil
		}
		return resp.Integer(int64(time.Since(last).Seconds())), nil
	case "REFCOUNT":
		if ctx.DB.GetType(c.key) == "none" {
			return resp.Nil(), nil
		}
		return resp.Integer(1), nil
	case "FREQUENCY":
		return resp.Error("ERR An LFU maxmemory policy is not selected, access frequency not tracked. Please note that when switching between maxmemory policies at runtime LFU and LRU data will take some time to adjust."), nil
	default:
		return resp.Frame{}, ErrSyntaxError
	}
}

func encodingName(kind string) string {
	switch kind {
	case "string":
		return "raw"
	case "list":
		return "listpack"
	case "hash", "set":
		return "hashtable"
	case "zset":
		return "skiplist"
	case "bloomfilter":
		return "bloomfilter"
	default:
		return "unknown"
	}
}

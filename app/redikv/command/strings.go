package command

import (
	"strings"
	"time"

	"github.com/kvwire/redikv/app/redikv/resp"
	"github.com/kvwire/redikv/app/redikv/store"
)

type getCmd struct{ key string }

func parseGet(a args) (Command, error) {
	if len(a) != 2 {
		return nil, wrongNumberOfArgs("get")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &getCmd{key: key}, nil
}

func (c *getCmd) Apply(ctx *Context) (resp.Frame, error) {
	v, err := ctx.DB.Get(c.key)
	switch {
	case err == store.ErrKeyNotFound:
		return resp.Nil(), nil
	case err == store.ErrWrongType:
		return resp.Error(err.Error()), nil
	case err != nil:
		return resp.Frame{}, err
	}
	return resp.BulkString(v), nil
}

type setCmd struct {
	key   string
	value []byte
	opts  store.SetOptions
}

// parseSet implements the SET option grammar (§4.D): SET key value
// [NX|XX] [GET] [EX s|PX ms|EXAT uts|PXAT utms] [KEEPTTL].
func parseSet(a args) (Command, error) {
	if len(a) < 3 {
		return nil, wrongNumberOfArgs("set")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	value, ok := nextBytes(a[2])
	if !ok {
		return nil, ErrInvalidProtocol
	}

	cmd := &setCmd{key: key, value: value}
	var haveNX, haveXX, haveExpiry, haveKeepTTL bool

	for i := 3; i < len(a); i++ {
		tok, ok := nextString(a[i])
		if !ok {
			return nil, ErrInvalidProtocol
		}
		switch strings.ToUpper(tok) {
		case "NX":
			haveNX = true
			cmd.opts.NX = true
		case "XX":
			haveXX = true
			cmd.opts.XX = true
		case "GET":
			cmd.opts.Get = true
		case "KEEPTTL":
			haveKeepTTL = true
			cmd.opts.KeepTTL = true
		case "EX", "PX", "EXAT", "PXAT":
			if haveExpiry {
				return nil, ErrSyntaxError
			}
			haveExpiry = true
			i++
			if i >= len(a) {
				return nil, ErrSyntaxError
			}
			n, ok := nextInteger(a[i])
			if !ok {
				return nil, ErrInvalidArgument
			}
			deadline, err := expiryDeadline(strings.ToUpper(tok), n)
			if err != nil {
				return nil, err
			}
			cmd.opts.Deadline = deadline
		default:
			return nil, ErrSyntaxError
		}
	}

	if haveNX && haveXX {
		return nil, ErrSyntaxError
	}
	if haveExpiry && haveKeepTTL {
		return nil, ErrSyntaxError
	}
	return cmd, nil
}

func expiryDeadline(unit string, n int64) (time.Time, error) {
	now := time.Now()
	var deadline time.Time
	switch unit {
	case "EX":
		if n <= 0 {
			return time.Time{}, ErrInvalidArgument
		}
		deadline = now.Add(time.Duration(n) * time.Second)
	case "PX":
		if n <= 0 {
			return time.Time{}, ErrInvalidArgument
		}
		deadline = now.Add(time.Duration(n) * time.Millisecond)
	case "EXAT":
		deadline = time.Unix(n, 0)
	case "PXAT":
		deadline = time.UnixMilli(n)
	}
	if (unit == "EXAT" || unit == "PXAT") && !deadline.After(now) {
		return time.Time{}, ErrInvalidArgument
	}
	return deadline, nil
}

func (c *setCmd) Apply(ctx *Context) (resp.Frame, error) {
	result, err := ctx.DB.Set(c.key, c.value, c.opts)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}

	if c.opts.Get {
		if !result.HadPrev {
			return resp.Nil(), nil
		}
		return resp.BulkString(result.Previous), nil
	}
	if !result.Applied {
		return resp.Nil(), nil
	}
	return resp.SimpleString("OK"), nil
}

type mgetCmd struct{ keys []string }

func parseMGet(a args) (Command, error) {
	if len(a) < 2 {
		return nil, wrongNumberOfArgs("mget")
	}
	keys := make([]string, 0, len(a)-1)
	for _, f := range a[1:] {
		k, ok := nextString(f)
		if !ok {
			return nil, ErrInvalidProtocol
		}
		keys = append(keys, k)
	}
	return &mgetCmd{keys: keys}, nil
}

func (c *mgetCmd) Apply(ctx *Context) (resp.Frame, error) {
	out := make([]resp.Frame, len(c.keys))
	for i, key := range c.keys {
		v, err := ctx.DB.Get(key)
		if err != nil {
			out[i] = resp.Nil()
			continue
		}
		out[i] = resp.BulkString(v)
	}
	return resp.Array(out...), nil
}

type msetCmd struct {
	pairs map[string][]byte
	order []string
}

func parseMSet(a args) (Command, error) {
	if len(a) < 3 || (len(a)-1)%2 != 0 {
		return nil, wrongNumberOfArgs("mset")
	}
	pairs := make(map[string][]byte, (len(a)-1)/2)
	order := make([]string, 0, (len(a)-1)/2)
	for i := 1; i < len(a); i += 2 {
		key, ok := nextString(a[i])
		if !ok {
			return nil, ErrInvalidProtocol
		}
		value, ok := nextBytes(a[i+1])
		if !ok {
			return nil, ErrInvalidProtocol
		}
		if _, dup := pairs[key]; !dup {
			order = append(order, key)
		}
		pairs[key] = value
	}
	return &msetCmd{pairs: pairs, order: order}, nil
}

func (c *msetCmd) Apply(ctx *Context) (resp.Frame, error) {
	for _, key := range c.order {
		if _, err := ctx.DB.Set(key, c.pairs[key], store.SetOptions{}); err != nil {
			return resp.Frame{}, err
		}
	}
	return resp.SimpleString("OK"), nil
}

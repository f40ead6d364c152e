package command

import (
	"github.com/kvwire/redikv/app/redikv/resp"
	"github.com/kvwire/redikv/app/redikv/store"
)

type hsetCmd struct {
	key   string
	pairs map[string][]byte
}

func parseHSet(a args) (Command, error) {
	if len(a) < 4 || (len(a)-2)%2 != 0 {
		return nil, wrongNumberOfArgs("hset")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	pairs := make(map[string][]byte, (len(a)-2)/2)
	for i := 2; i < len(a); i += 2 {
		field, ok := nextString(a[i])
		if !ok {
			return nil, ErrInvalidProtocol
		}
		value, ok := nextBytes(a[i+1])
		if !ok {
			return nil, ErrInvalidProtocol
		}
		pairs[field] = value
	}
	return &hsetCmd{key: key, pairs: pairs}, nil
}

func (c *hsetCmd) Apply(ctx *Context) (resp.Frame, error) {
	n, err := ctx.DB.HSet(c.key, c.pairs)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	return resp.Integer(int64(n)), nil
}

type hgetCmd struct {
	key, field string
}

func parseHGet(a args) (Command, error) {
	if len(a) != 3 {
		return nil, wrongNumberOfArgs("hget")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	field, ok := nextString(a[2])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &hgetCmd{key: key, field: field}, nil
}

func (c *hgetCmd) Apply(ctx *Context) (resp.Frame, error) {
	v, err := ctx.DB.HGet(c.key, c.field)
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

type hdelCmd struct {
	key    string
	fields []string
}

func parseHDel(a args) (Command, error) {
	if len(a) < 3 {
		return nil, wrongNumberOfArgs("hdel")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	fields := make([]string, 0, len(a)-2)
	for _, f := range a[2:] {
		s, ok := nextString(f)
		if !ok {
			return nil, ErrInvalidProtocol
		}
		fields = append(fields, s)
	}
	return &hdelCmd{key: key, fields: fields}, nil
}

func (c *hdelCmd) Apply(ctx *Context) (resp.Frame, error) {
	n, err := ctx.DB.HDel(c.key, c.fields...)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	return resp.Integer(int64(n)), nil
}

type hgetallCmd struct{ key string }

func parseHGetAll(a args) (Command, error) {
	if len(a) != 2 {
		return nil, wrongNumberOfArgs("hgetall")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &hgetallCmd{key: key}, nil
}

func (c *hgetallCmd) Apply(ctx *Context) (resp.Frame, error) {
	flat, err := ctx.DB.HGetAll(c.key)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	out := make([]resp.Frame, len(flat))
	for i, b := range flat {
		out[i] = resp.BulkString(b)
	}
	return resp.Array(out...), nil
}

type hlenCmd struct{ key string }

func parseHLen(a args) (Command, error) {
	if len(a) != 2 {
		return nil, wrongNumberOfArgs("hlen")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &hlenCmd{key: key}, nil
}

func (c *hlenCmd) Apply(ctx *Context) (resp.Frame, error) {
	n, err := ctx.DB.HLen(c.key)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	return resp.Integer(int64(n)), nil
}

package command

import (
	"github.com/kvwire/redikv/app/redikv/resp"
	"github.com/kvwire/redikv/app/redikv/store"
)

type lpushCmd struct {
	key    string
	values [][]byte
}

func parseLPush(a args) (Command, error) {
	if len(a) < 3 {
		return nil, wrongNumberOfArgs("lpush")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	values := make([][]byte, 0, len(a)-2)
	for _, f := range a[2:] {
		v, ok := nextBytes(f)
		if !ok {
			return nil, ErrInvalidProtocol
		}
		values = append(values, v)
	}
	return &lpushCmd{key: key, values: values}, nil
}

func (c *lpushCmd) Apply(ctx *Context) (resp.Frame, error) {
	n, err := ctx.DB.LPush(c.key, c.values...)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	return resp.Integer(int64(n)), nil
}

type lrangeCmd struct {
	key         string
	start, stop int
}

func parseLRange(a args) (Command, error) {
	if len(a) != 4 {
		return nil, wrongNumberOfArgs("lrange")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	start, ok := nextInteger(a[2])
	if !ok {
		return nil, ErrInvalidArgument
	}
	stop, ok := nextInteger(a[3])
	if !ok {
		return nil, ErrInvalidArgument
	}
	return &lrangeCmd{key: key, start: int(start), stop: int(stop)}, nil
}

func (c *lrangeCmd) Apply(ctx *Context) (resp.Frame, error) {
	items, err := ctx.DB.LRange(c.key, c.start, c.stop)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	out := make([]resp.Frame, len(items))
	for i, item := range items {
		out[i] = resp.BulkString(item)
	}
	return resp.Array(out...), nil
}

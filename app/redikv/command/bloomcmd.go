package command

import (
	"github.com/kvwire/redikv/app/redikv/resp"
	"github.com/kvwire/redikv/app/redikv/store"
)

type bfaddCmd struct {
	key, member string
}

func parseBFAdd(a args) (Command, error) {
	if len(a) != 3 {
		return nil, wrongNumberOfArgs("bf.add")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	member, ok := nextString(a[2])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &bfaddCmd{key: key, member: member}, nil
}

func (c *bfaddCmd) Apply(ctx *Context) (resp.Frame, error) {
	added, err := ctx.DB.BFAdd(c.key, c.member)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	if added {
		return resp.Integer(1), nil
	}
	return resp.Integer(0), nil
}

type bfexistsCmd struct {
	key, member string
}

func parseBFExists(a args) (Command, error) {
	if len(a) != 3 {
		return nil, wrongNumberOfArgs("bf.exists")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	member, ok := nextString(a[2])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &bfexistsCmd{key: key, member: member}, nil
}

func (c *bfexistsCmd) Apply(ctx *Context) (resp.Frame, error) {
	exists, err := ctx.DB.BFExists(c.key, c.member)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	if exists {
		return resp.Integer(1), nil
	}
	return resp.Integer(0), nil
}

package command

import (
	"github.com/kvwire/redikv/app/redikv/resp"
	"github.com/kvwire/redikv/app/redikv/store"
)

type saddCmd struct {
	key     string
	members []string
}

func parseSAdd(a args) (Command, error) {
	if len(a) < 3 {
		return nil, wrongNumberOfArgs("sadd")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	members := make([]string, 0, len(a)-2)
	for _, f := range a[2:] {
		m, ok := nextString(f)
		if !ok {
			return nil, ErrInvalidProtocol
		}
		members = append(members, m)
	}
	return &saddCmd{key: key, members: members}, nil
}

func (c *saddCmd) Apply(ctx *Context) (resp.Frame, error) {
	n, err := ctx.DB.SAdd(c.key, c.members...)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	return resp.Integer(int64(n)), nil
}

type sremCmd struct {
	key     string
	members []string
}

func parseSRem(a args) (Command, error) {
	if len(a) < 3 {
		return nil, wrongNumberOfArgs("srem")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	members := make([]string, 0, len(a)-2)
	for _, f := range a[2:] {
		m, ok := nextString(f)
		if !ok {
			return nil, ErrInvalidProtocol
		}
		members = append(members, m)
	}
	return &sremCmd{key: key, members: members}, nil
}

func (c *sremCmd) Apply(ctx *Context) (resp.Frame, error) {
	n, err := ctx.DB.SRem(c.key, c.members...)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	return resp.Integer(int64(n)), nil
}

type sismemberCmd struct {
	key    string
	member string
}

func parseSIsMember(a args) (Command, error) {
	if len(a) != 3 {
		return nil, wrongNumberOfArgs("sismember")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	member, ok := nextString(a[2])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &sismemberCmd{key: key, member: member}, nil
}

func (c *sismemberCmd) Apply(ctx *Context) (resp.Frame, error) {
	ok, err := ctx.DB.SIsMember(c.key, c.member)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	if ok {
		return resp.Integer(1), nil
	}
	return resp.Integer(0), nil
}

type smembersCmd struct{ key string }

func parseSMembers(a args) (Command, error) {
	if len(a) != 2 {
		return nil, wrongNumberOfArgs("smembers")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &smembersCmd{key: key}, nil
}

func (c *smembersCmd) Apply(ctx *Context) (resp.Frame, error) {
	members, err := ctx.DB.SMembers(c.key)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	out := make([]resp.Frame, len(members))
	for i, m := range members {
		out[i] = resp.BulkStringFromString(m)
	}
	return resp.Array(out...), nil
}

type scardCmd struct{ key string }

func parseSCard(a args) (Command, error) {
	if len(a) != 2 {
		return nil, wrongNumberOfArgs("scard")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &scardCmd{key: key}, nil
}

func (c *scardCmd) Apply(ctx *Context) (resp.Frame, error) {
	n, err := ctx.DB.SCard(c.key)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	return resp.Integer(int64(n)), nil
}

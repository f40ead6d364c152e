package command

import (
	"github.com/kvwire/redikv/app/redikv/resp"
)

type quitCmd struct{}

func parseQuit(a args) (Command, error) {
	if len(a) != 1 {
		return nil, wrongNumberOfArgs("quit")
	}
	return quitCmd{}, nil
}

func (quitCmd) Apply(ctx *Context) (resp.Frame, error) {
	ctx.CloseRequested = true
	return resp.SimpleString("OK"), nil
}

type pingCmd struct {
	message []byte
	hasMsg  bool
}

func parsePing(a args) (Command, error) {
	switch len(a) {
	case 1:
		return &pingCmd{}, nil
	case 2:
		msg, ok := nextBytes(a[1])
		if !ok {
			return nil, ErrInvalidProtocol
		}
		return &pingCmd{message: msg, hasMsg: true}, nil
	default:
		return nil, wrongNumberOfArgs("ping")
	}
}

func (c *pingCmd) Apply(ctx *Context) (resp.Frame, error) {
	if c.hasMsg {
		return resp.BulkString(c.message), nil
	}
	return resp.SimpleString("PONG"), nil
}

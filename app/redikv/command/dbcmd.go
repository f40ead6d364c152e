package command

import "github.com/kvwire/redikv/app/redikv/resp"

type flushCmd struct{}

func parseFlush(a args) (Command, error) {
	if len(a) != 1 {
		return nil, wrongNumberOfArgs("flush")
	}
	return flushCmd{}, nil
}

func (flushCmd) Apply(ctx *Context) (resp.Frame, error) {
	ctx.DB.Flush()
	return resp.SimpleString("OK"), nil
}

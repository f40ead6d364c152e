package command

import (
	"strconv"
	"strings"

	"github.com/kvwire/redikv/app/redikv/resp"
	"github.com/kvwire/redikv/app/redikv/store"
)

type scoreMember struct {
	score  float64
	member []byte
}

type zaddCmd struct {
	key   string
	opts  store.AddOptions
	pairs []scoreMember
}

// parseZAdd implements the ZADD option grammar: ZADD key [NX|XX] [GT|LT]
// [CH] [INCR] score member [score member ...]. INCR only makes sense
// with exactly one pair.
func parseZAdd(a args) (Command, error) {
	if len(a) < 4 {
		return nil, wrongNumberOfArgs("zadd")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}

	var opts store.AddOptions
	var haveNX, haveXX, haveLT, haveGT bool
	i := 2
loop:
	for ; i < len(a); i++ {
		tok, ok := nextString(a[i])
		if !ok {
			return nil, ErrInvalidProtocol
		}
		switch strings.ToUpper(tok) {
		case "NX":
			haveNX = true
			opts.NX = true
		case "XX":
			haveXX = true
			opts.XX = true
		case "GT":
			haveGT = true
			opts.GT = true
		case "LT":
			haveLT = true
			opts.LT = true
		case "CH":
			opts.CH = true
		case "INCR":
			opts.Incr = true
		default:
			break loop
		}
	}

	if haveNX && haveXX {
		return nil, ErrSyntaxError
	}
	if haveLT && haveGT {
		return nil, ErrSyntaxError
	}
	if haveNX && (haveLT || haveGT) {
		return nil, ErrSyntaxError
	}

	remaining := a[i:]
	if len(remaining) == 0 || len(remaining)%2 != 0 {
		return nil, ErrSyntaxError
	}
	if opts.Incr && len(remaining) != 2 {
		return nil, ErrInvalidArgument
	}

	pairs := make([]scoreMember, 0, len(remaining)/2)
	for j := 0; j < len(remaining); j += 2 {
		score, ok := nextFloat(remaining[j])
		if !ok {
			return nil, ErrInvalidArgument
		}
		member, ok := nextBytes(remaining[j+1])
		if !ok {
			return nil, ErrInvalidProtocol
		}
		pairs = append(pairs, scoreMember{score: score, member: member})
	}

	return &zaddCmd{key: key, opts: opts, pairs: pairs}, nil
}

func (c *zaddCmd) Apply(ctx *Context) (resp.Frame, error) {
	if c.opts.Incr {
		pair := c.pairs[0]
		resultScore, inserted, updated, err := ctx.DB.ZAdd(c.key, c.opts, pair.score, pair.member)
		if err == store.ErrWrongType {
			return resp.Error(err.Error()), nil
		}
		if err != nil {
			return resp.Frame{}, err
		}
		if !inserted && !updated {
			return resp.Nil(), nil
		}
		return resp.BulkStringFromString(formatScore(resultScore)), nil
	}

	count := 0
	for _, pair := range c.pairs {
		_, inserted, updated, err := ctx.DB.ZAdd(c.key, c.opts, pair.score, pair.member)
		if err == store.ErrWrongType {
			return resp.Error(err.Error()), nil
		}
		if err != nil {
			return resp.Frame{}, err
		}
		if inserted || (c.opts.CH && updated) {
			count++
		}
	}
	return resp.Integer(int64(count)), nil
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type zcardCmd struct{ key string }

func parseZCard(a args) (Command, error) {
	if len(a) != 2 {
		return nil, wrongNumberOfArgs("zcard")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &zcardCmd{key: key}, nil
}

func (c *zcardCmd) Apply(ctx *Context) (resp.Frame, error) {
	n, err := ctx.DB.ZCard(c.key)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	return resp.Integer(int64(n)), nil
}

type zremCmd struct {
	key     string
	members [][]byte
}

func parseZRem(a args) (Command, error) {
	if len(a) < 3 {
		return nil, wrongNumberOfArgs("zrem")
	}
	key, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	members := make([][]byte, 0, len(a)-2)
	for _, f := range a[2:] {
		m, ok := nextBytes(f)
		if !ok {
			return nil, ErrInvalidProtocol
		}
		members = append(members, m)
	}
	return &zremCmd{key: key, members: members}, nil
}

func (c *zremCmd) Apply(ctx *Context) (resp.Frame, error) {
	n, err := ctx.DB.ZRem(c.key, c.members...)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	return resp.Integer(int64(n)), nil
}

type zrangeCmd struct {
	key         string
	start, stop int
	withScores  bool
}

func parseZRange(a args) (Command, error) {
	if len(a) < 4 {
		return nil, wrongNumberOfArgs("zrange")
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
	withScores := false
	if len(a) == 5 {
		if !checkCmd(a[4], "WITHSCORES") {
			return nil, ErrSyntaxError
		}
		withScores = true
	} else if len(a) > 5 {
		return nil, ErrSyntaxError
	}
	return &zrangeCmd{key: key, start: int(start), stop: int(stop), withScores: withScores}, nil
}

func (c *zrangeCmd) Apply(ctx *Context) (resp.Frame, error) {
	members, err := ctx.DB.ZRange(c.key, c.start, c.stop)
	if err == store.ErrWrongType {
		return resp.Error(err.Error()), nil
	}
	if err != nil {
		return resp.Frame{}, err
	}
	if !c.withScores {
		out := make([]resp.Frame, len(members))
		for i, m := range members {
			out[i] = resp.BulkString(m.Member)
		}
		return resp.Array(out...), nil
	}
	out := make([]resp.Frame, 0, len(members)*2)
	for _, m := range members {
		out = append(out, resp.BulkString(m.Member), resp.BulkStringFromString(formatScore(m.Score)))
	}
	return resp.Array(out...), nil
}

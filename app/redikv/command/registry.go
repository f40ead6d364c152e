package command

import (
	"github.com/armon/go-radix"
	"github.com/kvwire/redikv/app/redikv/resp"
)

// Command is a typed, already-parsed request. Apply owns its inputs,
// performs the effect against the shared DB (through ctx), and returns
// the single reply Frame — except the subscribe family, which may write
// several frames itself through ctx.Writer and set ctx.Suppressed.
type Command interface {
	Apply(ctx *Context) (resp.Frame, error)
}

// parseFunc takes the already-split frame array (index 0 is the command
// token) and yields a typed Command, or a protocol error (§7).
type parseFunc func(a args) (Command, error)

// Registry is the §4.D "prefix-indexed dictionary" from upper-cased
// command token to parse closure. Built on a radix tree — the same
// ordered-prefix-structure idiom the teacher's own streams/radix.go AMT
// trie uses for stream keys, generalized here from fixed-width uint64
// pairs to variable-length command names.
type Registry struct {
	tree *radix.Tree
}

// NewRegistry builds the registry with every in-core command (§4.D) plus
// the supplemented commands of SPEC_FULL.md.
func NewRegistry() *Registry {
	r := &Registry{tree: radix.New()}

	r.register("GET", parseGet)
	r.register("SET", parseSet)
	r.register("MGET", parseMGet)
	r.register("MSET", parseMSet)

	r.register("LPUSH", parseLPush)
	r.register("LRANGE", parseLRange)

	r.register("HSET", parseHSet)
	r.register("HGET", parseHGet)
	r.register("HDEL", parseHDel)
	r.register("HGETALL", parseHGetAll)
	r.register("HLEN", parseHLen)

	r.register("SADD", parseSAdd)
	r.register("SREM", parseSRem)
	r.register("SISMEMBER", parseSIsMember)
	r.register("SMEMBERS", parseSMembers)
	r.register("SCARD", parseSCard)

	r.register("ZADD", parseZAdd)
	r.register("ZCARD", parseZCard)
	r.register("ZREM", parseZRem)
	r.register("ZRANGE", parseZRange)

	r.register("BF.ADD", parseBFAdd)
	r.register("BF.EXISTS", parseBFExists)

	r.register("DEL", parseDel)
	r.register("EXPIRE", parseExpire)
	r.register("TTL", parseTTL)
	r.register("PERSIST", parsePersist)
	r.register("TYPE", parseType)
	r.register("OBJECT", parseObject)
	r.register("INFO", parseInfo)

	r.register("QUIT", parseQuit)
	r.register("PING", parsePing)

	r.register("FLUSH", parseFlush)
	r.register("FLUSHDB", parseFlush)
	r.register("FLUSHALL", parseFlush)

	r.register("PUBLISH", parsePublish)
	r.register("SUBSCRIBE", parseSubscribe)
	r.register("UNSUBSCRIBE", parseUnsubscribe)

	return r
}

func (r *Registry) register(name string, fn parseFunc) {
	r.tree.Insert(name, fn)
}

// Parse looks up frame's command token and invokes its parse closure.
// Unknown tokens yield ErrUnknownCommand.
func (r *Registry) Parse(frame resp.Frame) (Command, error) {
	name, ok := commandName(frame)
	if !ok {
		return nil, ErrInvalidProtocol
	}
	v, ok := r.tree.Get(name)
	if !ok {
		return nil, ErrUnknownCommand
	}
	fn := v.(parseFunc)
	return fn(toArgs(frame))
}

package command

import (
	"fmt"
	"strings"

	"github.com/kvwire/redikv/app/redikv/resp"
)

type infoCmd struct{}

func parseInfo(a args) (Command, error) {
	if len(a) > 2 {
		return nil, wrongNumberOfArgs("info")
	}
	return infoCmd{}, nil
}

// Apply reports a small, real-Redis-shaped INFO section — enough for a
// client or a human poking at the server with redis-cli to see the
// keyspace size and build identity, without pretending to the dozens of
// sections real Redis ships.
func (infoCmd) Apply(ctx *Context) (resp.Frame, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Server\r\n")
	fmt.Fprintf(&b, "redis_version:redikv\r\n")
	fmt.Fprintf(&b, "# Keyspace\r\n")
	fmt.Fprintf(&b, "db0:keys=%d\r\n", ctx.DB.Size())
	return resp.BulkStringFromString(b.String()), nil
}

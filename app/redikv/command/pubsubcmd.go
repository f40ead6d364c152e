package command

import "github.com/kvwire/redikv/app/redikv/resp"

type publishCmd struct {
	channel string
	payload []byte
}

func parsePublish(a args) (Command, error) {
	if len(a) != 3 {
		return nil, wrongNumberOfArgs("publish")
	}
	channel, ok := nextString(a[1])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	payload, ok := nextBytes(a[2])
	if !ok {
		return nil, ErrInvalidProtocol
	}
	return &publishCmd{channel: channel, payload: payload}, nil
}

func (c *publishCmd) Apply(ctx *Context) (resp.Frame, error) {
	n := ctx.DB.Publish(c.channel, c.payload)
	return resp.Integer(int64(n)), nil
}

type subscribeCmd struct{ channels []string }

func parseSubscribe(a args) (Command, error) {
	if len(a) < 2 {
		return nil, wrongNumberOfArgs("subscribe")
	}
	channels := make([]string, 0, len(a)-1)
	for _, f := range a[1:] {
		ch, ok := nextString(f)
		if !ok {
			return nil, ErrInvalidProtocol
		}
		channels = append(channels, ch)
	}
	return &subscribeCmd{channels: channels}, nil
}

// Apply joins each channel, acking it individually (real Redis writes one
// "subscribe" reply per channel argument, each carrying the cumulative
// subscription count at that point), then itself drives the subscribe
// sub-loop (§4.E) until every subscription drops, the connection closes,
// or shutdown fires. A nested SUBSCRIBE arriving while already inside
// that loop (via Context.handleSubLoopInbound) simply recurses: the
// inner loop runs until its own exit condition, then control returns to
// the outer loop, which by then also sees zero subscriptions left and
// exits in turn.
func (c *subscribeCmd) Apply(ctx *Context) (resp.Frame, error) {
	ctx.Suppressed = true
	for _, channel := range c.channels {
		count := ctx.addSubscription(channel)
		ack := resp.Array(
			resp.BulkStringFromString("subscribe"),
			resp.BulkStringFromString(channel),
			resp.Integer(int64(count)),
		)
		if err := ctx.Writer.WriteFrame(ack); err != nil {
			return resp.Frame{}, err
		}
	}
	reply, err := ctx.runSubLoop()
	// A PING or QUIT handled inside the sub-loop resets Suppressed; every
	// frame this SUBSCRIBE produced has already been written.
	ctx.Suppressed = true
	return reply, err
}

type unsubscribeCmd struct{ channels []string }

func parseUnsubscribe(a args) (Command, error) {
	channels := make([]string, 0, len(a)-1)
	for _, f := range a[1:] {
		ch, ok := nextString(f)
		if !ok {
			return nil, ErrInvalidProtocol
		}
		channels = append(channels, ch)
	}
	return &unsubscribeCmd{channels: channels}, nil
}

// Apply leaves each named channel, or every currently-joined channel
// when none are named (real Redis's UNSUBSCRIBE-with-no-args form).
func (c *unsubscribeCmd) Apply(ctx *Context) (resp.Frame, error) {
	ctx.Suppressed = true
	channels := c.channels
	if len(channels) == 0 {
		channels = ctx.currentChannels()
	}
	if len(channels) == 0 {
		ack := resp.Array(
			resp.BulkStringFromString("unsubscribe"),
			resp.Nil(),
			resp.Integer(0),
		)
		return resp.Frame{}, ctx.Writer.WriteFrame(ack)
	}
	for _, channel := range channels {
		count, _ := ctx.removeSubscription(channel)
		ack := resp.Array(
			resp.BulkStringFromString("unsubscribe"),
			resp.BulkStringFromString(channel),
			resp.Integer(int64(count)),
		)
		if err := ctx.Writer.WriteFrame(ack); err != nil {
			return resp.Frame{}, err
		}
	}
	return resp.Frame{}, nil
}

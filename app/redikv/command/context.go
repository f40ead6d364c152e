package command

import (
	"errors"
	"io"

	"github.com/kvwire/redikv/app/redikv/resp"
	"github.com/kvwire/redikv/app/redikv/store"
	"github.com/sirupsen/logrus"
)

func isTransportEnd(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, ErrConnectionAborted)
}

// FrameWriter is how a Command writes directly to the wire — used only
// by the SUBSCRIBE sub-loop (§4.E), which emits more than one frame per
// Apply call. Ordinary commands never touch it; they just return their
// single reply frame and let the session write it.
type FrameWriter interface {
	WriteFrame(resp.Frame) error
}

// Inbound is one parsed frame (or parse failure) arriving from the
// connection, fed to the session's main loop and, while in subscribe
// mode, to the sub-loop as well.
type Inbound struct {
	Frame resp.Frame
	Err   error
}

type subEntry struct {
	sub  *store.Subscription
	stop chan struct{}
}

// Context is the per-connection state a Command's Apply needs: the
// shared DB, a way to write extra frames and read further inbound
// frames, and this connection's subscribe-mode bookkeeping.
type Context struct {
	DB       *store.DB
	Registry *Registry
	Writer   FrameWriter
	Inbound  <-chan Inbound
	Done     <-chan struct{}
	Log      *logrus.Entry

	// CloseRequested, when true after Apply returns, tells the session
	// to write the reply (unless Suppressed) and then close the
	// connection — set by QUIT.
	CloseRequested bool
	// Suppressed tells the session Apply already wrote everything it
	// needed to (SUBSCRIBE/UNSUBSCRIBE's acks and relayed messages);
	// the session must not also write the returned Frame.
	Suppressed bool

	subs     map[string]subEntry
	messages chan store.Message
}

// NewContext constructs a fresh per-connection Context.
func NewContext(db *store.DB, registry *Registry, writer FrameWriter, inbound <-chan Inbound, done <-chan struct{}, log *logrus.Entry) *Context {
	return &Context{
		DB:       db,
		Registry: registry,
		Writer:   writer,
		Inbound:  inbound,
		Done:     done,
		Log:      log,
		subs:     map[string]subEntry{},
		messages: make(chan store.Message, 64),
	}
}

// Close releases every live subscription — called when the session ends.
func (ctx *Context) Close() {
	for name := range ctx.subs {
		ctx.removeSubscription(name)
	}
}

func (ctx *Context) subscriptionCount() int { return len(ctx.subs) }

// currentChannels lists every channel this connection is presently
// subscribed to, used by UNSUBSCRIBE's no-argument "leave everything"
// form.
func (ctx *Context) currentChannels() []string {
	names := make([]string, 0, len(ctx.subs))
	for name := range ctx.subs {
		names = append(names, name)
	}
	return names
}

func (ctx *Context) addSubscription(channel string) int {
	if _, exists := ctx.subs[channel]; exists {
		return len(ctx.subs)
	}
	sub := ctx.DB.Subscribe(channel)
	stop := make(chan struct{})
	ctx.subs[channel] = subEntry{sub: sub, stop: stop}
	go pump(sub, stop, ctx.messages)
	return len(ctx.subs)
}

// removeSubscription returns (remaining count, whether it had been
// subscribed at all — UNSUBSCRIBE on a channel you never joined still
// acks with the current count, matching real Redis).
func (ctx *Context) removeSubscription(channel string) (int, bool) {
	entry, ok := ctx.subs[channel]
	if !ok {
		return len(ctx.subs), false
	}
	close(entry.stop)
	ctx.DB.Unsubscribe(entry.sub)
	delete(ctx.subs, channel)
	return len(ctx.subs), true
}

func (ctx *Context) removeAllSubscriptions() []string {
	names := make([]string, 0, len(ctx.subs))
	for name := range ctx.subs {
		names = append(names, name)
	}
	for _, name := range names {
		ctx.removeSubscription(name)
	}
	return names
}

// pump fans messages from one subscription's mailbox into the
// connection-wide messages channel until stop fires.
func pump(sub *store.Subscription, stop <-chan struct{}, out chan<- store.Message) {
	for {
		select {
		case <-stop:
			return
		case msg, ok := <-sub.Receive():
			if !ok {
				return
			}
			select {
			case out <- msg:
			case <-stop:
				return
			}
		}
	}
}

// runSubLoop multiplexes the three event sources of §4.E's subscribe
// sub-loop until every subscription drops, the connection is asked to
// close, or shutdown fires.
func (ctx *Context) runSubLoop() (resp.Frame, error) {
	for {
		if ctx.subscriptionCount() == 0 {
			return resp.Frame{}, nil
		}
		select {
		case <-ctx.Done:
			return resp.Frame{}, nil
		case msg := <-ctx.messages:
			frame := resp.Array(
				resp.BulkStringFromString("message"),
				resp.BulkStringFromString(msg.Channel),
				resp.BulkString(msg.Payload),
			)
			if err := ctx.Writer.WriteFrame(frame); err != nil {
				return resp.Frame{}, err
			}
		case in, ok := <-ctx.Inbound:
			if !ok || isTransportEnd(in.Err) {
				return resp.Frame{}, io.EOF
			}
			if err := ctx.handleSubLoopInbound(in); err != nil {
				return resp.Frame{}, err
			}
			if ctx.CloseRequested {
				return resp.Frame{}, nil
			}
		}
	}
}

var subscribeModeAllowed = map[string]bool{
	"SUBSCRIBE":   true,
	"UNSUBSCRIBE": true,
	"PING":        true,
	"QUIT":        true,
}

func (ctx *Context) handleSubLoopInbound(in Inbound) error {
	if in.Err != nil {
		return ctx.Writer.WriteFrame(resp.Error(ErrInvalidProtocol.Error()))
	}
	name, ok := commandName(in.Frame)
	if !ok || !subscribeModeAllowed[name] {
		ctx.Log.WithField("cmd", name).Warn("dropping command not valid in subscribe mode")
		return nil
	}
	cmd, err := ctx.Registry.Parse(in.Frame)
	if err != nil {
		return ctx.Writer.WriteFrame(resp.Error(err.Error()))
	}

	ctx.Suppressed = false
	reply, err := cmd.Apply(ctx)
	if err != nil {
		return ctx.Writer.WriteFrame(resp.Error(err.Error()))
	}
	if ctx.Suppressed {
		return nil
	}
	return ctx.Writer.WriteFrame(reply)
}

package store

import "sync/atomic"

// channelBufferSize bounds each subscriber's mailbox (§3 "Pub/Sub
// registry", §5 "Backpressure").
const channelBufferSize = 1024

// Message is one published payload, tagged with the channel it arrived
// on so a session fanning in multiple subscriptions can label it.
type Message struct {
	Channel string
	Payload []byte
}

// Subscription is a receiver bound to one channel. Lagged subscribers
// silently miss messages once their mailbox fills — see Receive.
type Subscription struct {
	channel string
	mailbox chan Message
	lagged  atomic.Bool
	topic   *topic
	id      uint64
}

func (s *Subscription) Channel() string { return s.channel }

// Receive returns the subscriber's message channel. A Lagged condition
// is not delivered as a value on this channel: per §4.C/§5, a
// subscriber that falls behind just resumes at the head of the buffer
// with the dropped messages gone, which is exactly buffered-channel
// semantics already — Lagged is informational only (Subscription.Lagged).
func (s *Subscription) Receive() <-chan Message { return s.mailbox }

// Lagged reports whether any publish since the last call found this
// subscriber's mailbox full and had to skip it.
func (s *Subscription) Lagged() bool { return s.lagged.Swap(false) }

type topic struct {
	name string
	subs map[uint64]*Subscription
}

// pubsubRegistry maps channel name to a topic (I-3: created on first
// subscribe, senders may be garbage collected on receiver count reaching
// zero but this is not required for correctness — here we keep empty
// topics around for simplicity, matching the "not required" carve-out).
type pubsubRegistry struct {
	topics map[string]*topic
	nextID uint64
}

func newPubsubRegistry() *pubsubRegistry {
	return &pubsubRegistry{topics: map[string]*topic{}}
}

// subscribe must be called with the DB mutex held; it only mutates maps,
// never blocks.
func (r *pubsubRegistry) subscribe(channel string) *Subscription {
	t, ok := r.topics[channel]
	if !ok {
		t = &topic{name: channel, subs: map[uint64]*Subscription{}}
		r.topics[channel] = t
	}
	r.nextID++
	sub := &Subscription{
		channel: channel,
		mailbox: make(chan Message, channelBufferSize),
		topic:   t,
		id:      r.nextID,
	}
	t.subs[sub.id] = sub
	return sub
}

// unsubscribe must be called with the DB mutex held.
func (r *pubsubRegistry) unsubscribe(sub *Subscription) {
	delete(sub.topic.subs, sub.id)
}

// publish must be called with the DB mutex held (DB.Publish keeps it for
// the whole call, sends included); the channel sends use non-blocking
// selects so a slow subscriber can never stall a publisher.
// It returns the count of receivers that accepted the message.
func (r *pubsubRegistry) publish(channel string, payload []byte) int {
	t, ok := r.topics[channel]
	if !ok {
		return 0
	}
	recipients := make([]*Subscription, 0, len(t.subs))
	for _, sub := range t.subs {
		recipients = append(recipients, sub)
	}

	delivered := 0
	msg := Message{Channel: channel, Payload: payload}
	for _, sub := range recipients {
		select {
		case sub.mailbox <- msg:
			delivered++
		default:
			sub.lagged.Store(true)
		}
	}
	return delivered
}

func (r *pubsubRegistry) subscriberCount(channel string) int {
	t, ok := r.topics[channel]
	if !ok {
		return 0
	}
	return len(t.subs)
}

// Package pubsub is a small in-process publish/subscribe bus used to fan
// out peripheral status. Topics are plain strings, matching is exact, and a
// retained message per topic is replayed to late subscribers.
package pubsub

import (
	"sync"
)

type Message struct {
	Topic    string
	Payload  any
	Retained bool
}

type Subscription struct {
	topic string
	ch    chan Message
	bus   *Bus
}

func (s *Subscription) Topic() string           { return s.topic }
func (s *Subscription) Channel() <-chan Message { return s.ch }
func (s *Subscription) Unsubscribe()            { s.bus.unsubscribe(s) }

type Bus struct {
	mu       sync.Mutex
	qLen     int
	subs     map[string][]*Subscription
	retained map[string]Message
}

// New creates a bus with the given per-subscriber queue length.
func New(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	return &Bus{
		qLen:     queueLen,
		subs:     make(map[string][]*Subscription),
		retained: make(map[string]Message),
	}
}

// Publish delivers msg to all subscribers of its topic. When msg.Retained
// is set the message is stored (or cleared if its payload is nil) and
// replayed to future subscribers.
func (b *Bus) Publish(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs[msg.Topic] {
		deliver(sub.ch, msg)
	}

	if msg.Retained {
		if msg.Payload == nil {
			delete(b.retained, msg.Topic)
		} else {
			b.retained[msg.Topic] = msg
		}
	}
}

// Subscribe registers for a topic; a retained message, if any, is delivered
// immediately.
func (b *Bus) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan Message, b.qLen),
		bus:   b,
	}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	if msg, ok := b.retained[topic]; ok {
		deliver(sub.ch, msg)
	}
	b.mu.Unlock()

	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	list := b.subs[sub.topic]
	for i, s := range list {
		if s == sub {
			b.subs[sub.topic] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[sub.topic]) == 0 {
		delete(b.subs, sub.topic)
	}
	b.mu.Unlock()
	close(sub.ch)
}

// deliver never blocks: when the queue is full the oldest message is
// dropped in favour of the new one.
func deliver(ch chan Message, msg Message) {
	select {
	case ch <- msg:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- msg
	}
}

package pubsub

import (
	"testing"
	"time"
)

func TestBasicPubSub(t *testing.T) {
	b := New(4)
	sub := b.Subscribe("periph/fpga/status")

	b.Publish(Message{Topic: "periph/fpga/status", Payload: "hello"})

	select {
	case got := <-sub.Channel():
		if got.Payload.(string) != "hello" {
			t.Errorf("expected payload 'hello', got %v", got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
}

func TestRetainedMessage(t *testing.T) {
	b := New(2)
	b.Publish(Message{Topic: "periph/clk/status", Payload: "persist", Retained: true})

	sub := b.Subscribe("periph/clk/status")

	select {
	case got := <-sub.Channel():
		if got.Payload.(string) != "persist" {
			t.Errorf("expected retained payload 'persist', got %v", got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for retained message")
	}
}

func TestRetainedClear(t *testing.T) {
	b := New(2)
	b.Publish(Message{Topic: "t", Payload: "x", Retained: true})
	b.Publish(Message{Topic: "t", Payload: nil, Retained: true})

	sub := b.Subscribe("t")
	select {
	case got := <-sub.Channel():
		t.Fatalf("expected no retained delivery, got %v", got.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOldestOnFullQueue(t *testing.T) {
	b := New(1)
	sub := b.Subscribe("t")

	b.Publish(Message{Topic: "t", Payload: 1})
	b.Publish(Message{Topic: "t", Payload: 2}) // displaces 1

	got := <-sub.Channel()
	if got.Payload.(int) != 2 {
		t.Fatalf("expected newest message to survive, got %v", got.Payload)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New(4)
	sub := b.Subscribe("t")
	sub.Unsubscribe()

	if _, ok := <-sub.Channel(); ok {
		t.Fatal("channel should be closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	b.Publish(Message{Topic: "t", Payload: "late"})
}

func TestTopicsAreIsolated(t *testing.T) {
	b := New(4)
	a := b.Subscribe("periph/a/status")
	b.Publish(Message{Topic: "periph/b/status", Payload: "other"})

	select {
	case got := <-a.Channel():
		t.Fatalf("message leaked across topics: %v", got.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

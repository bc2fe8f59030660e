package ws

import (
	"errors"
	"testing"
	"time"
)

type fakeSubscriber struct {
	received chan []byte
	sendErr  error
	closed   bool
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{received: make(chan []byte, 8)}
}

func (f *fakeSubscriber) Send(payload []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.received <- payload
	return nil
}

func (f *fakeSubscriber) Close() { f.closed = true }

func waitFor(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case payload := <-ch:
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return nil
	}
}

func TestHubBroadcastReachesChannelSubscribers(t *testing.T) {
	hub := NewHub()
	alerts := newFakeSubscriber()
	other := newFakeSubscriber()

	hub.Register(AlertChannel, alerts)
	hub.Register("other", other)

	hub.Broadcast(AlertChannel, []byte(`{"id":"a1"}`))

	if got := waitFor(t, alerts.received); string(got) != `{"id":"a1"}` {
		t.Fatalf("wrong payload: %s", got)
	}
	select {
	case payload := <-other.received:
		t.Fatalf("subscriber on another channel received %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()
	sub := newFakeSubscriber()

	hub.Register(AlertChannel, sub)
	hub.Unregister(AlertChannel, sub)
	hub.Broadcast(AlertChannel, []byte("late"))

	select {
	case payload := <-sub.received:
		t.Fatalf("unregistered subscriber received %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsFailingSubscribers(t *testing.T) {
	hub := NewHub()
	failing := newFakeSubscriber()
	failing.sendErr = errors.New("gone")
	healthy := newFakeSubscriber()

	hub.Register(AlertChannel, failing)
	hub.Register(AlertChannel, healthy)

	hub.Broadcast(AlertChannel, []byte("first"))
	waitFor(t, healthy.received)

	hub.Broadcast(AlertChannel, []byte("second"))
	if got := waitFor(t, healthy.received); string(got) != "second" {
		t.Fatalf("healthy subscriber missed follow-up broadcast: %s", got)
	}
	if !failing.closed {
		t.Fatal("expected failing subscriber to be closed")
	}
}

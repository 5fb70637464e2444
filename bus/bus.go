// Package bus implements storefront.Broadcaster over a process-wide event
// bus. It carries the credential-change notifications (token updated,
// display name updated, session expired) that components outside the
// session tree react to.
package bus

import (
	evbus "github.com/asaskevich/EventBus"
)

// Bus wraps an EventBus instance behind the storefront.Broadcaster
// contract. Topics carry no payload; subscribers re-read the credential
// store, so late or coalesced deliveries stay correct.
type Bus struct {
	inner evbus.Bus
}

// New creates an independent bus. Most applications share a single
// instance across the store, coordinator and session manager.
func New() *Bus {
	return &Bus{inner: evbus.New()}
}

// Publish dispatches topic to all current subscribers synchronously.
func (b *Bus) Publish(topic string) {
	b.inner.Publish(topic)
}

// Subscribe registers fn for topic.
func (b *Bus) Subscribe(topic string, fn func()) error {
	return b.inner.Subscribe(topic, fn)
}

// Unsubscribe removes a previously registered fn for topic.
func (b *Bus) Unsubscribe(topic string, fn func()) error {
	return b.inner.Unsubscribe(topic, fn)
}

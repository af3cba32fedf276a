// Package diag is an in-process notification bus for runtime
// lifecycle events: subscriptions, command and query outcomes, event
// processor progress. It is for an embedding application to observe
// what the worker loops are doing; it plays no part in the mesh
// protocol itself.
package diag

import (
	"sync"
	"time"
)

// Kind identifies what happened.
type Kind string

const (
	KindSubscribed           Kind = "subscribed"
	KindUnsubscribed         Kind = "unsubscribed"
	KindCommandHandled       Kind = "command.handled"
	KindCommandFailed        Kind = "command.failed"
	KindQueryHandled         Kind = "query.handled"
	KindQueryFailed          Kind = "query.failed"
	KindEventProcessed       Kind = "event.processed"
	KindEventFailed          Kind = "event.failed"
	KindEventProcessorHalted Kind = "event_processor.halted"
	KindAppendRejected       Kind = "append.rejected"
	KindReconnected          Kind = "reconnected"
)

// Notification is one occurrence on the bus.
type Notification struct {
	Kind      Kind
	Timestamp time.Time
	Subject   string // command/query/event type name, or aggregate ID
	Message   string
	Metadata  map[string]string
}

// Subscriber is a channel that receives notifications.
type Subscriber chan *Notification

// Bus fans out notifications to every current subscriber. Publish
// never blocks on a slow subscriber: a full subscriber buffer drops
// the notification for that subscriber only.
type Bus struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	notifyCh    chan *Notification
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewBus creates a new notification bus. Call Start to begin
// distributing published notifications.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[Subscriber]bool),
		notifyCh:    make(chan *Notification, 100),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the bus's distribution loop in its own goroutine.
func (b *Bus) Start() {
	go b.run()
}

// Stop stops the distribution loop and closes every current
// subscriber channel.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)

		b.mu.Lock()
		defer b.mu.Unlock()
		for sub := range b.subscribers {
			delete(b.subscribers, sub)
			close(sub)
		}
	})
}

// Subscribe creates a new subscription.
func (b *Bus) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

// Publish queues a notification for distribution. If Timestamp is
// zero it is set to now.
func (b *Bus) Publish(n *Notification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	select {
	case b.notifyCh <- n:
	case <-b.stopCh:
	}
}

func (b *Bus) run() {
	for {
		select {
		case n := <-b.notifyCh:
			b.broadcast(n)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Bus) broadcast(n *Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- n:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

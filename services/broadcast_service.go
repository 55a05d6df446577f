package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rajvansh-1/starbucks-rewards-api/models"
)

// Event types published on the broadcaster
const (
	EventOrderCreated     = "order_created"
	EventStatusUpdated    = "status_updated"
	EventPaymentConfirmed = "payment_confirmed"
)

// Event is a lifecycle notification delivered to channel subscribers.
// Delivery is at-least-once and best-effort; the ID lets consumers
// de-duplicate.
type Event struct {
	ID        string        `json:"id"`
	Channel   string        `json:"channel"`
	Type      string        `json:"type"`
	Order     *models.Order `json:"order,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// OrderChannel names the per-order channel.
func OrderChannel(orderID uint) string {
	return fmt.Sprintf("order:%d", orderID)
}

// StoreChannel names the per-store channel.
func StoreChannel(storeID uint) string {
	return fmt.Sprintf("store:%d", storeID)
}

// NotificationsChannel names the per-customer channel.
func NotificationsChannel(customerID uint) string {
	return fmt.Sprintf("notifications:%d", customerID)
}

// subscriptionBuffer bounds how far a slow subscriber may lag before events
// are dropped for it. There is no persistence or replay; a disconnected
// subscriber reconciles with a fresh read.
const subscriptionBuffer = 16

// Subscription is one subscriber's attachment to a channel. Events arrive on
// C in publish order until Close is called.
type Subscription struct {
	C chan Event

	id      uint64
	channel string
	hub     *Broadcaster
	once    sync.Once
}

// Close detaches the subscription from its channel and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
	})
}

// Broadcaster fans lifecycle events out to per-order, per-store and
// per-customer channels. It is in-process; the tagged-channel contract keeps
// the transport swappable without touching business logic.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[uint64]*Subscription
	nextID      uint64
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]map[uint64]*Subscription),
	}
}

var broadcasterInstance *Broadcaster

// InitBroadcaster initializes the global broadcaster
func InitBroadcaster() *Broadcaster {
	broadcasterInstance = NewBroadcaster()
	return broadcasterInstance
}

// GetBroadcaster returns the initialized broadcaster instance
func GetBroadcaster() *Broadcaster {
	return broadcasterInstance
}

// SetBroadcaster sets the broadcaster instance (primarily for testing)
func SetBroadcaster(b *Broadcaster) {
	broadcasterInstance = b
}

// Subscribe attaches a new subscriber to the channel.
func (b *Broadcaster) Subscribe(channel string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		C:       make(chan Event, subscriptionBuffer),
		id:      b.nextID,
		channel: channel,
		hub:     b,
	}

	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[uint64]*Subscription)
	}
	b.subscribers[channel][sub.id] = sub

	return sub
}

func (b *Broadcaster) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subscribers[sub.channel]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(b.subscribers, sub.channel)
		}
	}
	close(sub.C)
}

// Publish delivers the event to every current subscriber of the channel.
// Events published on the same channel from a single goroutine reach each
// subscriber in publish order; a subscriber whose buffer is full has the
// event dropped rather than blocking the publisher.
func (b *Broadcaster) Publish(channel, eventType string, order *models.Order) {
	event := Event{
		ID:        uuid.NewString(),
		Channel:   channel,
		Type:      eventType,
		Order:     order,
		Timestamp: time.Now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers[channel] {
		select {
		case sub.C <- event:
		default:
			log.Printf("Dropping event %s on %s: subscriber %d buffer full", event.Type, channel, sub.id)
		}
	}
}

// PublishOrderEvent publishes the event on all three channel families that
// observe the order: the order channel, the store channel, and the owning
// customer's notifications channel.
func (b *Broadcaster) PublishOrderEvent(eventType string, order *models.Order) {
	b.Publish(OrderChannel(order.ID), eventType, order)
	b.Publish(StoreChannel(order.StoreID), eventType, order)
	b.Publish(NotificationsChannel(order.CustomerID), eventType, order)
}

// SubscriberCount reports how many subscribers a channel currently has.
func (b *Broadcaster) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[channel])
}

package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Rajvansh-1/starbucks-rewards-api/models"
)

func TestBroadcaster_PublishReachesSubscriber(t *testing.T) {
	hub := NewBroadcaster()

	sub := hub.Subscribe(OrderChannel(1))
	defer sub.Close()

	order := &models.Order{ID: 1, StoreID: 2, CustomerID: 3}
	hub.Publish(OrderChannel(1), EventOrderCreated, order)

	select {
	case event := <-sub.C:
		assert.Equal(t, EventOrderCreated, event.Type)
		assert.Equal(t, OrderChannel(1), event.Channel)
		assert.Equal(t, uint(1), event.Order.ID)
		assert.NotEmpty(t, event.ID)
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected an event on the order channel")
	}
}

func TestBroadcaster_EventsArriveInPublishOrder(t *testing.T) {
	hub := NewBroadcaster()

	sub := hub.Subscribe(StoreChannel(9))
	defer sub.Close()

	for i := 0; i < 5; i++ {
		order := &models.Order{ID: uint(i + 1), StoreID: 9}
		hub.Publish(StoreChannel(9), EventStatusUpdated, order)
	}

	for i := 0; i < 5; i++ {
		select {
		case event := <-sub.C:
			assert.Equal(t, uint(i+1), event.Order.ID, "events must arrive in publish order")
		case <-time.After(time.Second):
			t.Fatalf("missing event %d", i+1)
		}
	}
}

func TestBroadcaster_PublishOrderEventFansOutToAllChannelFamilies(t *testing.T) {
	hub := NewBroadcaster()

	order := &models.Order{ID: 4, StoreID: 7, CustomerID: 11}

	orderSub := hub.Subscribe(OrderChannel(4))
	storeSub := hub.Subscribe(StoreChannel(7))
	notifSub := hub.Subscribe(NotificationsChannel(11))
	defer orderSub.Close()
	defer storeSub.Close()
	defer notifSub.Close()

	hub.PublishOrderEvent(EventStatusUpdated, order)

	for name, sub := range map[string]*Subscription{
		"order":         orderSub,
		"store":         storeSub,
		"notifications": notifSub,
	} {
		select {
		case event := <-sub.C:
			assert.Equal(t, EventStatusUpdated, event.Type, name)
			assert.Equal(t, uint(4), event.Order.ID, name)
		case <-time.After(time.Second):
			t.Fatalf("no event delivered on %s channel", name)
		}
	}
}

func TestBroadcaster_NoCrossChannelDelivery(t *testing.T) {
	hub := NewBroadcaster()

	other := hub.Subscribe(OrderChannel(2))
	defer other.Close()

	hub.Publish(OrderChannel(1), EventOrderCreated, &models.Order{ID: 1})

	select {
	case <-other.C:
		t.Fatal("subscriber of order:2 must not see order:1 events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcaster_ClosedSubscriptionStopsDelivery(t *testing.T) {
	hub := NewBroadcaster()

	sub := hub.Subscribe(OrderChannel(3))
	assert.Equal(t, 1, hub.SubscriberCount(OrderChannel(3)))

	sub.Close()
	assert.Equal(t, 0, hub.SubscriberCount(OrderChannel(3)))

	// Closing twice is safe
	sub.Close()

	// Publishing afterwards must not panic
	hub.Publish(OrderChannel(3), EventOrderCreated, &models.Order{ID: 3})

	// The channel is closed for the consumer
	_, open := <-sub.C
	assert.False(t, open)
}

func TestBroadcaster_SlowSubscriberNeverBlocksPublisher(t *testing.T) {
	hub := NewBroadcaster()

	sub := hub.Subscribe(OrderChannel(5))
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Publish far beyond the buffer without any consumer
		for i := 0; i < subscriptionBuffer*4; i++ {
			hub.Publish(OrderChannel(5), EventOrderCreated, &models.Order{ID: uint(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	// Buffered events are still readable; the overflow was dropped
	received := 0
	for {
		select {
		case <-sub.C:
			received++
			continue
		default:
		}
		break
	}
	assert.Equal(t, subscriptionBuffer, received)
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "order:42", OrderChannel(42))
	assert.Equal(t, "store:7", StoreChannel(7))
	assert.Equal(t, "notifications:11", NotificationsChannel(11))
	assert.Equal(t, fmt.Sprintf("order:%d", 1), OrderChannel(1))
}

package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickbite/internal/models"
	"quickbite/internal/rooms"
	"quickbite/internal/testutil"
)

func trackedOrder(id string) *models.Order {
	return &models.Order{
		ID:           id,
		CustomerID:   "cust1",
		RestaurantID: "rest1",
		RoomID:       rooms.ForOrder(id),
		Status:       models.StatusAccepted,
		Timeline: []models.TimelineEntry{
			{OrderID: id, Status: models.StatusPlaced, Timestamp: time.Now().Add(-time.Minute)},
			{OrderID: id, Status: models.StatusAccepted, Timestamp: time.Now()},
		},
	}
}

func TestStatusChangeTargetsEachRoomOnce(t *testing.T) {
	pub := &testutil.RecordingPublisher{}
	d := NewDispatcher(pub)

	order := trackedOrder("42")
	at := time.Now()
	d.OrderStatusChanged(order, models.StatusAccepted, at)

	events := pub.Events()
	require.Len(t, events, 3) // order room, customer, restaurant; no partner yet

	seen := map[string]int{}
	for _, e := range events {
		seen[e.Room]++
		assert.Equal(t, EventStatusUpdate, e.Event)
	}
	assert.Equal(t, 1, seen[rooms.ForOrder("42")])
	assert.Equal(t, 1, seen[rooms.ForUser("cust1")])
	assert.Equal(t, 1, seen[rooms.ForRestaurant("rest1")])
}

func TestPartnerRoomIncludedOnceAssigned(t *testing.T) {
	pub := &testutil.RecordingPublisher{}
	d := NewDispatcher(pub)

	order := trackedOrder("42")
	order.DeliveryPartnerID = "p1"
	d.OrderStatusChanged(order, models.StatusOnTheWay, time.Now())

	roomsHit := map[string]bool{}
	for _, e := range pub.Events() {
		roomsHit[e.Room] = true
	}
	assert.True(t, roomsHit[rooms.ForPartner("p1")])
	assert.Len(t, pub.Events(), 4)
}

func TestPayloadVariantsShareLogicalIdentity(t *testing.T) {
	pub := &testutil.RecordingPublisher{}
	d := NewDispatcher(pub)

	order := trackedOrder("42")
	at := time.Now()
	d.OrderStatusChanged(order, models.StatusAccepted, at)

	for _, e := range pub.Events() {
		switch payload := e.Payload.(type) {
		case StatusEvent:
			assert.Equal(t, "42", payload.OrderID)
			assert.Equal(t, models.StatusAccepted, payload.Status)
			assert.Equal(t, at, payload.Timestamp)
			assert.Len(t, payload.Timeline, 2)
			assert.Equal(t, rooms.ForOrder("42"), e.Room, "full payload only goes to the order room")
		case StatusNotice:
			assert.Equal(t, "42", payload.OrderID)
			assert.Equal(t, models.StatusAccepted, payload.Status)
			assert.Equal(t, at, payload.Timestamp)
		default:
			t.Fatalf("unexpected payload type %T", e.Payload)
		}
	}
}

func TestLocationFanOutToActiveOrders(t *testing.T) {
	pub := &testutil.RecordingPublisher{}
	d := NewDispatcher(pub)

	a := trackedOrder("A")
	b := trackedOrder("B")
	at := time.Now()
	d.LocationChanged("p1", 12.97, 77.59, []*models.Order{a, b}, at)

	events := pub.Events()
	require.Len(t, events, 2)
	assert.Len(t, pub.ByRoom(rooms.ForOrder("A")), 1)
	assert.Len(t, pub.ByRoom(rooms.ForOrder("B")), 1)

	for _, e := range events {
		payload, ok := e.Payload.(LocationEvent)
		require.True(t, ok)
		assert.Equal(t, "p1", payload.PartnerID)
		assert.Equal(t, 12.97, payload.Lat)
		assert.Equal(t, 77.59, payload.Lng)
		assert.Equal(t, at, payload.Timestamp)
	}
}

func TestLocationSampleOrderingPreserved(t *testing.T) {
	pub := &testutil.RecordingPublisher{}
	d := NewDispatcher(pub)

	a := trackedOrder("A")
	t0 := time.Now()
	t1 := t0.Add(time.Second)
	d.LocationChanged("p1", 1, 1, []*models.Order{a}, t0)
	d.LocationChanged("p1", 2, 2, []*models.Order{a}, t1)

	events := pub.ByRoom(rooms.ForOrder("A"))
	require.Len(t, events, 2)
	first := events[0].Payload.(LocationEvent)
	second := events[1].Payload.(LocationEvent)
	assert.True(t, first.Timestamp.Before(second.Timestamp))
}

func TestNewOrderGoesToRestaurantRoomOnly(t *testing.T) {
	pub := &testutil.RecordingPublisher{}
	d := NewDispatcher(pub)

	order := trackedOrder("42")
	d.OrderPlaced(order, time.Now())

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, rooms.ForRestaurant("rest1"), events[0].Room)
	assert.Equal(t, EventNewOrder, events[0].Event)
}

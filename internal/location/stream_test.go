package location

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickbite/internal/dispatch"
	"quickbite/internal/errs"
	"quickbite/internal/models"
	"quickbite/internal/rooms"
	"quickbite/internal/testutil"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(12.97, 77.59))
	assert.NoError(t, Validate(-90, 180))

	for _, tc := range []struct {
		name     string
		lat, lng float64
	}{
		{"nan lat", math.NaN(), 77},
		{"nan lng", 12, math.NaN()},
		{"inf lat", math.Inf(1), 77},
		{"lat too high", 90.01, 0},
		{"lat too low", -90.01, 0},
		{"lng too high", 0, 180.01},
		{"lng too low", 0, -180.01},
	} {
		err := Validate(tc.lat, tc.lng)
		assert.True(t, errors.Is(err, errs.ErrInvalidLocation), tc.name)
	}
}

func seedActiveOrder(t *testing.T, mem *testutil.MemStore, id, partnerID string, status models.OrderStatus) {
	t.Helper()
	require.NoError(t, mem.CreateOrder(context.Background(), &models.Order{
		ID:                id,
		CustomerID:        "cust1",
		RestaurantID:      "rest1",
		DeliveryPartnerID: partnerID,
		Status:            status,
		RoomID:            rooms.ForOrder(id),
	}))
}

func TestSampleFansOutToActiveOrders(t *testing.T) {
	mem := testutil.NewMemStore()
	pub := &testutil.RecordingPublisher{}
	h := NewHandler(mem, mem, dispatch.NewDispatcher(pub))

	mem.SeedPartner(models.DeliveryPartner{UserID: "p1", Online: true})
	seedActiveOrder(t, mem, "A", "p1", models.StatusOnTheWay)
	seedActiveOrder(t, mem, "B", "p1", models.StatusReadyForPickup)
	seedActiveOrder(t, mem, "C", "p1", models.StatusDelivered) // not active
	seedActiveOrder(t, mem, "D", "p2", models.StatusOnTheWay)  // other partner

	now := time.Now()
	err := h.HandleSample(context.Background(), Sample{PartnerID: "p1", Lat: 12.9, Lng: 77.5}, now)
	require.NoError(t, err)

	assert.Len(t, pub.Events(), 2)
	require.Len(t, pub.ByRoom(rooms.ForOrder("A")), 1)
	require.Len(t, pub.ByRoom(rooms.ForOrder("B")), 1)
	assert.Empty(t, pub.ByRoom(rooms.ForOrder("C")))
	assert.Empty(t, pub.ByRoom(rooms.ForOrder("D")))

	payload := pub.ByRoom(rooms.ForOrder("A"))[0].Payload.(dispatch.LocationEvent)
	assert.Equal(t, "p1", payload.PartnerID)
	assert.Equal(t, now, payload.Timestamp)

	// last-known location recorded on the partner
	partner, err := mem.GetPartner(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 12.9, partner.Lat)
	assert.Equal(t, 77.5, partner.Lng)
	assert.Equal(t, now, partner.LastActiveAt)
}

func TestSampleNarrowedToOneOrder(t *testing.T) {
	mem := testutil.NewMemStore()
	pub := &testutil.RecordingPublisher{}
	h := NewHandler(mem, mem, dispatch.NewDispatcher(pub))

	mem.SeedPartner(models.DeliveryPartner{UserID: "p1"})
	seedActiveOrder(t, mem, "A", "p1", models.StatusOnTheWay)
	seedActiveOrder(t, mem, "B", "p1", models.StatusOnTheWay)

	err := h.HandleSample(context.Background(), Sample{PartnerID: "p1", Lat: 1, Lng: 1, OrderID: "B"}, time.Now())
	require.NoError(t, err)

	assert.Empty(t, pub.ByRoom(rooms.ForOrder("A")))
	assert.Len(t, pub.ByRoom(rooms.ForOrder("B")), 1)
}

func TestMalformedSampleDroppedWithoutDispatch(t *testing.T) {
	mem := testutil.NewMemStore()
	pub := &testutil.RecordingPublisher{}
	h := NewHandler(mem, mem, dispatch.NewDispatcher(pub))

	mem.SeedPartner(models.DeliveryPartner{UserID: "p1", Lat: 5, Lng: 5})
	seedActiveOrder(t, mem, "A", "p1", models.StatusOnTheWay)

	err := h.HandleSample(context.Background(), Sample{PartnerID: "p1", Lat: math.NaN(), Lng: 77}, time.Now())
	assert.True(t, errors.Is(err, errs.ErrInvalidLocation))
	assert.Empty(t, pub.Events())

	// last-known location untouched
	partner, _ := mem.GetPartner(context.Background(), "p1")
	assert.Equal(t, 5.0, partner.Lat)
}

func TestUnknownPartnerSample(t *testing.T) {
	mem := testutil.NewMemStore()
	pub := &testutil.RecordingPublisher{}
	h := NewHandler(mem, mem, dispatch.NewDispatcher(pub))

	err := h.HandleSample(context.Background(), Sample{PartnerID: "ghost", Lat: 1, Lng: 1}, time.Now())
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

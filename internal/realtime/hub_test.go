package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickbite/internal/dispatch"
	"quickbite/internal/location"
	"quickbite/internal/models"
	"quickbite/internal/monitoring"
	"quickbite/internal/rooms"
	"quickbite/internal/service"
	"quickbite/internal/testutil"
)

type wsEnv struct {
	hub    *Hub
	mem    *testutil.MemStore
	orders *service.OrderService
	server *httptest.Server
}

// newWSEnv serves the hub behind a stub auth middleware that trusts
// uid/role query params, standing in for the JWT layer.
func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := testutil.NewMemStore()
	hub := NewHub(rooms.NewRegistry())
	dispatcher := dispatch.NewDispatcher(hub)
	orders := service.NewOrderService(mem, mem, dispatcher, monitoring.NewMonitor(), service.DefaultPolicy())
	locations := location.NewHandler(mem, mem, dispatcher)
	hub.Attach(orders, locations)

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		uid, role := c.Query("uid"), c.Query("role")
		if uid == "" || role == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set("actor", models.Actor{ID: uid, Role: models.Role(role)})
		hub.HandleWS(c)
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &wsEnv{hub: hub, mem: mem, orders: orders, server: server}
}

func (e *wsEnv) dial(t *testing.T, uid string, role models.Role) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?uid=" + uid + "&role=" + string(role)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func send(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(frame{Event: event, Data: payload}))
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func (e *wsEnv) placeOrder(t *testing.T, customerID string) *models.Order {
	t.Helper()
	order, err := e.orders.Place(context.Background(), customerID, service.PlaceOrderInput{
		RestaurantID: "rest1",
		Items:        []service.ItemInput{{DishID: "d1", Name: "Margherita", UnitPrice: 250, Quantity: 1}},
	})
	require.NoError(t, err)
	return order
}

func TestJoinOrderAndReceiveStatusEvents(t *testing.T) {
	env := newWSEnv(t)
	order := env.placeOrder(t, "cust1")

	conn := env.dial(t, "cust1", models.RoleCustomer)
	send(t, conn, "join-order", gin.H{"orderId": order.ID})

	joined := read(t, conn)
	require.Equal(t, dispatch.EventOrderJoined, joined.Event)
	var ack struct {
		Room string `json:"room"`
	}
	require.NoError(t, json.Unmarshal(joined.Data, &ack))
	assert.Equal(t, order.RoomID, ack.Room)

	// the restaurant accepts over the REST path; the room hears about it
	_, err := env.orders.Transition(context.Background(), order.ID, models.StatusAccepted, models.Actor{ID: "rest1", Role: models.RoleRestaurant})
	require.NoError(t, err)

	update := read(t, conn)
	require.Equal(t, dispatch.EventStatusUpdate, update.Event)
	var status dispatch.StatusEvent
	require.NoError(t, json.Unmarshal(update.Data, &status))
	assert.Equal(t, order.ID, status.OrderID)
	assert.Equal(t, models.StatusAccepted, status.Status)
	assert.Len(t, status.Timeline, 2)
}

func TestStrangerMayNotJoinOrderRoom(t *testing.T) {
	env := newWSEnv(t)
	order := env.placeOrder(t, "cust1")

	conn := env.dial(t, "someone-else", models.RoleCustomer)
	send(t, conn, "join-order", gin.H{"orderId": order.ID})

	reply := read(t, conn)
	assert.Equal(t, dispatch.EventError, reply.Event)
	assert.Empty(t, env.hub.Registry().MembersOf(order.RoomID))
}

func TestRoomIsolation(t *testing.T) {
	env := newWSEnv(t)
	mine := env.placeOrder(t, "cust1")
	other := env.placeOrder(t, "cust2")

	conn := env.dial(t, "cust1", models.RoleCustomer)
	send(t, conn, "join-order", gin.H{"orderId": mine.ID})
	require.Equal(t, dispatch.EventOrderJoined, read(t, conn).Event)

	// an update on the other order must not reach this session
	_, err := env.orders.Transition(context.Background(), other.ID, models.StatusAccepted, models.Actor{ID: "rest1", Role: models.RoleRestaurant})
	require.NoError(t, err)
	_, err = env.orders.Transition(context.Background(), mine.ID, models.StatusAccepted, models.Actor{ID: "rest1", Role: models.RoleRestaurant})
	require.NoError(t, err)

	update := read(t, conn)
	require.Equal(t, dispatch.EventStatusUpdate, update.Event)
	var status dispatch.StatusEvent
	require.NoError(t, json.Unmarshal(update.Data, &status))
	assert.Equal(t, mine.ID, status.OrderID)
}

func TestDriverLocationReachesOrderRoom(t *testing.T) {
	env := newWSEnv(t)
	env.mem.SeedPartner(models.DeliveryPartner{UserID: "p1", Online: true})

	order := env.placeOrder(t, "cust1")
	restaurant := models.Actor{ID: "rest1", Role: models.RoleRestaurant}
	for _, status := range []models.OrderStatus{models.StatusAccepted, models.StatusPreparing, models.StatusReadyForPickup} {
		_, err := env.orders.Transition(context.Background(), order.ID, status, restaurant)
		require.NoError(t, err)
	}
	_, err := env.orders.Accept(context.Background(), order.ID, models.Actor{ID: "p1", Role: models.RoleDelivery})
	require.NoError(t, err)

	customer := env.dial(t, "cust1", models.RoleCustomer)
	send(t, customer, "join-order", gin.H{"orderId": order.ID})
	require.Equal(t, dispatch.EventOrderJoined, read(t, customer).Event)

	partner := env.dial(t, "p1", models.RoleDelivery)
	send(t, partner, "driver-location", gin.H{"lat": 12.97, "lng": 77.59})

	update := read(t, customer)
	require.Equal(t, dispatch.EventLocationUpdate, update.Event)
	var loc dispatch.LocationEvent
	require.NoError(t, json.Unmarshal(update.Data, &loc))
	assert.Equal(t, "p1", loc.PartnerID)
	assert.Equal(t, 12.97, loc.Lat)
	assert.Equal(t, 77.59, loc.Lng)
}

func TestCustomerMayNotStreamLocation(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t, "cust1", models.RoleCustomer)
	send(t, conn, "driver-location", gin.H{"lat": 1.0, "lng": 1.0})

	reply := read(t, conn)
	assert.Equal(t, dispatch.EventError, reply.Event)
}

func TestDisconnectPurgesRoomMembership(t *testing.T) {
	env := newWSEnv(t)
	order := env.placeOrder(t, "cust1")

	conn := env.dial(t, "cust1", models.RoleCustomer)
	send(t, conn, "join-order", gin.H{"orderId": order.ID})
	require.Equal(t, dispatch.EventOrderJoined, read(t, conn).Event)
	require.Len(t, env.hub.Registry().MembersOf(order.RoomID), 1)

	conn.Close()
	require.Eventually(t, func() bool {
		return len(env.hub.Registry().MembersOf(order.RoomID)) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPersonalRoomNoticeWithoutExplicitJoin(t *testing.T) {
	env := newWSEnv(t)
	order := env.placeOrder(t, "cust1")

	// connected, never joined the order room
	conn := env.dial(t, "cust1", models.RoleCustomer)
	time.Sleep(50 * time.Millisecond) // let the session land in its identity room

	_, err := env.orders.Transition(context.Background(), order.ID, models.StatusAccepted, models.Actor{ID: "rest1", Role: models.RoleRestaurant})
	require.NoError(t, err)

	update := read(t, conn)
	require.Equal(t, dispatch.EventStatusUpdate, update.Event)
	var notice dispatch.StatusNotice
	require.NoError(t, json.Unmarshal(update.Data, &notice))
	assert.Equal(t, order.ID, notice.OrderID)
	assert.Equal(t, models.StatusAccepted, notice.Status)
}

func TestRestaurantHearsAboutNewOrders(t *testing.T) {
	env := newWSEnv(t)

	conn := env.dial(t, "rest1", models.RoleRestaurant)
	time.Sleep(50 * time.Millisecond)

	order := env.placeOrder(t, "cust1")

	notice := read(t, conn)
	require.Equal(t, dispatch.EventNewOrder, notice.Event)
	var payload dispatch.NewOrderEvent
	require.NoError(t, json.Unmarshal(notice.Data, &payload))
	require.NotNil(t, payload.Order)
	assert.Equal(t, order.ID, payload.Order.ID)
}

func TestUnknownEventGetsErrorReply(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t, "cust1", models.RoleCustomer)
	send(t, conn, "does-not-exist", gin.H{})

	reply := read(t, conn)
	assert.Equal(t, dispatch.EventError, reply.Event)
}

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quickbite/internal/dispatch"
	"quickbite/internal/errs"
	"quickbite/internal/location"
	"quickbite/internal/models"
	"quickbite/internal/rooms"
)

// Client→server event names.
const (
	eventJoinOrder      = "join-order"
	eventLeaveOrder     = "leave-order"
	eventDriverLocation = "driver-location"
	eventStatusUpdate   = "status-update"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	// maxMessageSize bounds a single inbound frame
	maxMessageSize = 64 * 1024
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is enforced by the reverse proxy
	},
}

// envelope frames every message in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Session is one connected client. The actor comes from the auth
// middleware; the transport never re-checks credentials.
type Session struct {
	id    string
	actor models.Actor
	conn  *websocket.Conn
	send  chan []byte
	hub   *Hub
}

// HandleWS upgrades an authenticated request into a live session and
// starts its read and write pumps.
func (h *Hub) HandleWS(c *gin.Context) {
	actor, ok := ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("failed to upgrade connection: %v", err)
		return
	}

	s := &Session{
		id:    uuid.NewString(),
		actor: actor,
		conn:  conn,
		send:  make(chan []byte, 256),
		hub:   h,
	}
	h.register(s)

	// every session sits in its identity room from the start, so the
	// compact per-actor notices are deliverable without an explicit join
	h.registry.Join(personalRoom(actor), s.id)

	go s.writePump()
	go s.readPump()
}

func personalRoom(actor models.Actor) string {
	switch actor.Role {
	case models.RoleRestaurant:
		return rooms.ForRestaurant(actor.ID)
	case models.RoleDelivery:
		return rooms.ForPartner(actor.ID)
	default:
		return rooms.ForUser(actor.ID)
	}
}

// ActorFrom extracts the authenticated actor placed on the request
// context by the auth middleware.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get("actor")
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// readPump pumps messages from the connection to the event handlers.
func (s *Session) readPump() {
	defer func() {
		s.hub.unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error on session %s: %v", s.id, err)
			}
			break
		}
		s.handleMessage(message)
	}
}

// writePump pumps queued messages to the connection and keeps it alive
// with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := s.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage routes one inbound frame. Errors go back on the error
// channel of this session only, never broadcast.
func (s *Session) handleMessage(message []byte) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		s.sendError("malformed message")
		return
	}

	ctx := context.Background()

	switch env.Event {
	case eventJoinOrder:
		var req struct {
			OrderID string `json:"orderId"`
		}
		if err := json.Unmarshal(env.Data, &req); err != nil || req.OrderID == "" {
			s.sendError("orderId is required")
			return
		}
		order, err := s.hub.orders.Get(ctx, req.OrderID)
		if err != nil {
			s.sendError(userMessage(err))
			return
		}
		if err := rooms.AuthorizeOrderJoin(order, s.actor); err != nil {
			s.sendError(userMessage(err))
			return
		}
		s.hub.registry.Join(order.RoomID, s.id)
		s.sendEvent(dispatch.EventOrderJoined, gin.H{"room": order.RoomID, "orderId": order.ID})

	case eventLeaveOrder:
		var req struct {
			OrderID string `json:"orderId"`
		}
		if err := json.Unmarshal(env.Data, &req); err != nil || req.OrderID == "" {
			s.sendError("orderId is required")
			return
		}
		s.hub.registry.Leave(rooms.ForOrder(req.OrderID), s.id)

	case eventDriverLocation:
		if s.actor.Role != models.RoleDelivery {
			s.sendError("only delivery partners stream location")
			return
		}
		var req struct {
			OrderID string  `json:"orderId"`
			Lat     float64 `json:"lat"`
			Lng     float64 `json:"lng"`
		}
		if err := json.Unmarshal(env.Data, &req); err != nil {
			s.sendError("malformed location sample")
			return
		}
		sample := location.Sample{PartnerID: s.actor.ID, Lat: req.Lat, Lng: req.Lng, OrderID: req.OrderID}
		if err := s.hub.locations.HandleSample(ctx, sample, time.Now()); err != nil {
			s.sendError(userMessage(err))
		}

	case eventStatusUpdate:
		var req struct {
			OrderID string             `json:"orderId"`
			Status  models.OrderStatus `json:"status"`
		}
		if err := json.Unmarshal(env.Data, &req); err != nil || req.OrderID == "" || req.Status == "" {
			s.sendError("orderId and status are required")
			return
		}
		if _, err := s.hub.orders.Transition(ctx, req.OrderID, req.Status, s.actor); err != nil {
			s.sendError(userMessage(err))
		}

	default:
		s.sendError("unknown event: " + env.Event)
	}
}

// enqueue hands a pre-marshaled frame to the write pump, dropping it if
// the session's buffer is full.
func (s *Session) enqueue(data []byte) {
	select {
	case s.send <- data:
	default:
		log.Printf("session %s buffer full, dropping message", s.id)
	}
}

// sendEvent marshals and queues a server event for this session only.
func (s *Session) sendEvent(event string, payload interface{}) {
	data, err := json.Marshal(outbound{Event: event, Data: payload})
	if err != nil {
		log.Printf("marshal %s event: %v", event, err)
		return
	}
	s.enqueue(data)
}

// sendError emits on the session's error channel.
func (s *Session) sendError(message string) {
	s.sendEvent(dispatch.EventError, gin.H{"message": message})
}

// userMessage maps domain errors to client-safe strings.
func userMessage(err error) string {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return "order not found"
	case errors.Is(err, errs.ErrUnauthorized):
		return "not authorized"
	case errors.Is(err, errs.ErrInvalidTransition):
		return "invalid status transition"
	case errors.Is(err, errs.ErrAlreadyAssigned):
		return "order already assigned"
	case errors.Is(err, errs.ErrInvalidLocation):
		return "invalid location sample"
	}
	return "server error"
}

package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmelo/sharebook/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is handled by the CORS layer in front of the router.
		return true
	},
}

// wsMessage is the envelope for every message sent to stream clients.
type wsMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// wsClient is one connected stream subscriber.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains active websocket connections and broadcasts engine events
// to them. It implements domain.Notifier; event marshalling happens on the
// engine's goroutine but delivery is buffered, so a slow client never
// blocks matching; its messages are dropped instead.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*wsClient]bool
	broadcast chan []byte
	logger    *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:   make(map[*wsClient]bool),
		broadcast: make(chan []byte, 256),
		logger:    logger,
	}
}

// Run delivers broadcast messages to all connected clients until the
// context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Client can't keep up; drop the message.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ServeHTTP handles GET /ws: upgrades the connection and registers the
// client for event broadcasts.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}

	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("stream client connected", slog.Int("total", total))

	go h.writePump(client)
	go h.readPump(client)
}

// writePump drains the client's send channel onto the connection.
func (h *Hub) writePump(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.drop(c)
			return
		}
	}
}

// readPump consumes (and discards) inbound frames so that close frames are
// processed, unregistering the client on disconnect.
func (h *Hub) readPump(c *wsClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

// drop unregisters a client and closes its send channel once.
func (h *Hub) drop(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// publish marshals and queues an event for broadcast.
func (h *Hub) publish(event string, data any) {
	msg, err := json.Marshal(wsMessage{Event: event, Data: data})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		// Broadcast buffer full; drop rather than block the engine.
	}
}

// InstrumentRegistered broadcasts an instrument.registered event.
func (h *Hub) InstrumentRegistered(e domain.InstrumentRegisteredEvent) {
	h.publish("instrument.registered", map[string]any{
		"symbol":       e.Symbol,
		"name":         e.Name,
		"total_shares": e.TotalShares,
		"price":        e.Price,
	})
}

// OrderPlaced broadcasts an order.placed event.
func (h *Hub) OrderPlaced(e domain.OrderPlacedEvent) {
	h.publish("order.placed", map[string]any{
		"caller":   e.Caller,
		"symbol":   e.Symbol,
		"amount":   e.Amount,
		"price":    e.Price,
		"is_buy":   e.Side == domain.OrderSideBuy,
		"type":     string(e.Type),
		"order_id": e.OrderID,
	})
}

// TradeExecuted broadcasts a trade.executed event.
func (h *Hub) TradeExecuted(e domain.TradeExecutedEvent) {
	h.publish("trade.executed", map[string]any{
		"trade_id": e.TradeID,
		"buyer":    e.Buyer,
		"seller":   e.Seller,
		"symbol":   e.Symbol,
		"amount":   e.Amount,
		"price":    e.Price,
	})
}

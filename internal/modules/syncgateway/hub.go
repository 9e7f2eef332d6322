package syncgateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"venuebook/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// feedClient is one websocket watching a single venue.
type feedClient struct {
	venueID int64
	conn    *websocket.Conn
	send    chan []byte
}

// Hub fans published events out to websocket clients watching the event's
// venue. It is a NotificationSink.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*feedClient]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*feedClient]struct{}),
		log:     logger.OrNop(log),
	}
}

func (h *Hub) register(c *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.venueID]
	if !ok {
		set = make(map[*feedClient]struct{})
		h.clients[c.venueID] = set
	}
	set[c] = struct{}{}
	feedClients.Inc()
}

func (h *Hub) unregister(c *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.venueID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.venueID)
	}
	close(c.send)
	feedClients.Dec()
}

// Watchers reports how many clients follow venueID.
func (h *Hub) Watchers(venueID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[venueID])
}

// Send queues ev for every client of its venue. Slow clients miss events
// rather than hold up the publisher.
func (h *Hub) Send(_ context.Context, ev Event) error {
	data, err := ev.Marshal()
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[ev.VenueID] {
		select {
		case c.send <- data:
		default:
			h.log.Debug("feed client too slow, event skipped", zap.Int64("venue_id", ev.VenueID))
		}
	}
	return nil
}

// ServeWS attaches conn to venueID's feed and blocks until the client leaves.
func (h *Hub) ServeWS(conn *websocket.Conn, venueID int64) {
	c := &feedClient{venueID: venueID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for venueID, set := range h.clients {
		for c := range set {
			close(c.send)
			feedClients.Dec()
		}
		delete(h.clients, venueID)
	}
}

// readPump only keeps the connection alive; clients have nothing to say.
func (h *Hub) readPump(c *feedClient) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *feedClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package dashboard

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dex-pair-monitor/internal/domain"
	"dex-pair-monitor/internal/observability"
	"dex-pair-monitor/internal/render"
)

// Event types sent to WebSocket clients.
const (
	EventFrame  = "frame" // full last frame, sent once on connect
	EventLines  = "lines"
	EventTable  = "table"
	EventMetric = "metric"
	EventNotice = "notice"
)

const (
	clientBuffer = 64
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
)

// Event is one WebSocket message.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is a Surface that broadcasts every call to connected WebSocket clients.
// A client whose buffer is full misses events instead of blocking the loop.
type Hub struct {
	logger   *log.Logger
	snapshot func() render.Frame

	mu      sync.RWMutex
	clients map[*client]struct{}
	dropped int64
}

// NewHub creates a Hub. snapshot, when non-nil, supplies the frame sent to
// new clients so they do not wait a full cycle for data.
func NewHub(snapshot func() render.Frame, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		logger:   logger,
		snapshot: snapshot,
		clients:  make(map[*client]struct{}),
	}
}

// Compile-time interface check.
var _ render.Surface = (*Hub)(nil)

// StatusLines implements render.Surface.
func (h *Hub) StatusLines(lines []string) {
	h.broadcast(Event{Type: EventLines, Data: lines})
}

// Table implements render.Surface.
func (h *Hub) Table(rows []domain.PairSnapshot) {
	h.broadcast(Event{Type: EventTable, Data: render.NewRows(rows)})
}

// Metric implements render.Surface.
func (h *Hub) Metric(m render.Metric) {
	h.broadcast(Event{Type: EventMetric, Data: m})
}

// Notice implements render.Surface.
func (h *Hub) Notice(n domain.Notice) {
	h.broadcast(Event{Type: EventNotice, Data: n})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns the number of events skipped for slow clients.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

func (h *Hub) broadcast(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Printf("marshal %s event: %v", ev.Type, err)
		observability.RecordPublish("websocket", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.dropped++
		}
	}
	if len(h.clients) > 0 {
		observability.RecordPublish("websocket", nil)
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	if h.snapshot != nil {
		if frame := h.snapshot(); frame.Seq > 0 {
			if msg, err := json.Marshal(Event{Type: EventFrame, Data: frame}); err == nil {
				c.send <- msg
			}
		}
	}

	h.register(c)
	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	observability.SetWSClients(n)
	h.logger.Printf("websocket client connected (%d total)", n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()
	observability.SetWSClients(n)
	h.logger.Printf("websocket client disconnected (%d total)", n)
}

// readPump discards client messages and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

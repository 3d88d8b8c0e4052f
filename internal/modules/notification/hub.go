package notification

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Upgrade switches an HTTP request to a websocket connection.
func Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return upgrader.Upgrade(w, r, nil)
}

type connection struct {
	topic string
	conn  *websocket.Conn
	send  chan []byte
}

// Hub pushes toasts to websocket clients grouped by topic (a booking session id).
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*connection]bool
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		conns: make(map[string]map[*connection]bool),
		log:   log,
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[c.topic] == nil {
		h.conns[c.topic] = make(map[*connection]bool)
	}
	h.conns[c.topic][c] = true
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[c.topic]; ok && set[c] {
		delete(set, c)
		close(c.send)
		if len(set) == 0 {
			delete(h.conns, c.topic)
		}
	}
}

// Subscribers reports how many clients listen on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[topic])
}

// Publish sends a toast to every client on topic; slow clients are skipped.
func (h *Hub) Publish(topic string, t Toast) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[topic] {
		select {
		case c.send <- data:
		default:
			h.log.Debug("dropping toast for slow client", zap.String("topic", topic))
		}
	}
}

// Notifier returns a Notifier that publishes on topic.
func (h *Hub) Notifier(topic string) Notifier {
	return NotifierFunc(func(kind Kind, message string) {
		h.Publish(topic, Toast{Kind: kind, Message: message, At: time.Now().UTC()})
	})
}

// CloseTopic disconnects every client on topic.
func (h *Hub) CloseTopic(topic string) {
	h.mu.RLock()
	conns := make([]*connection, 0, len(h.conns[topic]))
	for c := range h.conns[topic] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		_ = c.conn.Close()
	}
}

// ServeWS registers conn under topic and blocks until the client goes away.
func (h *Hub) ServeWS(conn *websocket.Conn, topic string) {
	c := &connection{
		topic: topic,
		conn:  conn,
		send:  make(chan []byte, 32),
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// clients only listen; reads keep the deadline and close detection alive
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
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

package events

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub fans events out to websocket connections registered per topic.
type Hub struct {
	logger    logrus.FieldLogger
	mu        sync.Mutex
	listeners map[string][]*websocket.Conn
}

// NewHub returns a new Hub.
func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		logger:    logger,
		listeners: make(map[string][]*websocket.Conn),
	}
}

// Register subscribes a connection to a topic.
func (h *Hub) Register(topic string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.listeners[topic] = append(h.listeners[topic], conn)
}

// Unregister removes a connection from a topic.
func (h *Hub) Unregister(topic string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.listeners[topic]
	for i, c := range conns {
		if c == conn {
			h.listeners[topic] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.listeners[topic]) == 0 {
		delete(h.listeners, topic)
	}
}

// Publish writes the event to every connection on the topic. Write failures
// are logged and the connection is dropped from the topic.
func (h *Hub) Publish(topic string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.listeners[topic]
	alive := conns[:0]
	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.WithError(err).WithField("topic", topic).Warn("could not write event")
			_ = conn.Close()
			continue
		}

		alive = append(alive, conn)
	}

	if len(alive) == 0 {
		delete(h.listeners, topic)
		return
	}
	h.listeners[topic] = alive
}

// Listeners returns the number of connections on a topic.
func (h *Hub) Listeners(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[topic])
}

// Package feed streams engine events to websocket subscribers.
package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/podium-engine/internal/metrics"
)

// clientMsg is an inbound control message from a subscriber
type clientMsg struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

// frame is an outbound event frame
type frame struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

// Hub manages websocket connections and their topic subscriptions
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logrus.Logger
	mu       sync.RWMutex
	// topic -> set of connections
	subs map[string]map[*websocket.Conn]struct{}
}

// NewHub creates a hub with a custom origin policy
func NewHub(allowOrigin func(r *http.Request) bool, logger *logrus.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		logger:   logger,
		subs:     make(map[string]map[*websocket.Conn]struct{}),
	}
}

// HandleWS owns the lifecycle of one websocket connection. Clients
// subscribe and unsubscribe to topics matching the engine's event names.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithField("error", err.Error()).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.FeedSubscribers.Inc()
	defer metrics.FeedSubscribers.Dec()

	for {
		var msg clientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.Topic]; !ok {
				h.subs[msg.Topic] = make(map[*websocket.Conn]struct{})
			}
			h.subs[msg.Topic][conn] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if set, ok := h.subs[msg.Topic]; ok {
				delete(set, conn)
				if len(set) == 0 {
					delete(h.subs, msg.Topic)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
		}
	}

	h.mu.Lock()
	for _, set := range h.subs {
		delete(set, conn)
	}
	h.mu.Unlock()
}

// Broadcast sends a payload to every connection subscribed to the topic
func (h *Hub) Broadcast(topic string, payload interface{}) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subs[topic]))
	for c := range h.subs[topic] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	b, err := json.Marshal(frame{Topic: topic, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"topic": topic,
			"error": err.Error(),
		}).Error("Failed to encode feed frame")
		return
	}

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			h.logger.WithField("topic", topic).Debug("Dropping slow feed subscriber")
		}
	}
}

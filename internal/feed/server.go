package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/podium-engine/internal/events"
)

// Server exposes the websocket feed endpoint and bridges bus events to
// connected subscribers.
type Server struct {
	hub    *Hub
	server *http.Server
	logger *logrus.Logger
}

// NewServer creates a feed server listening on the given port
func NewServer(port int, bus *events.Bus, logger *logrus.Logger) *Server {
	hub := NewHub(func(r *http.Request) bool { return true }, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)

	s := &Server{
		hub: hub,
		server: &http.Server{
			Addr:        fmt.Sprintf(":%d", port),
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			IdleTimeout: 120 * time.Second,
		},
		logger: logger,
	}

	for _, name := range []string{
		events.EventBetFinalized,
		events.EventStreakLost,
		events.EventLevelUp,
		events.EventOddsUpdated,
	} {
		topic := name
		bus.Subscribe(topic, func(ctx context.Context, event events.Event) {
			s.hub.Broadcast(topic, event.Payload)
		})
	}

	return s
}

// Start starts the feed server in the background
func (s *Server) Start(ctx context.Context) error {
	go func() {
		s.logger.WithField("addr", s.server.Addr).Info("Event feed server starting")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("Event feed server error")
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully stops the feed server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Package sse provides Server-Sent Events support for pushing job updates
// to the technician's device.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"

	"fieldtech_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventType represents different types of SSE events.
type EventType string

const (
	// EventDistanceResolved carries a late-resolved job distance for the
	// list screens.
	EventDistanceResolved EventType = "distance_resolved"
	// EventJobStatusChanged tells the device a job's canonical status
	// moved, whether by its own transition or a backend-side change.
	EventJobStatusChanged EventType = "job_status_changed"
	// EventPaymentSettled announces that a job's payment landed.
	EventPaymentSettled EventType = "payment_settled"
	// EventVisitReminder is the scheduled pre-visit nudge.
	EventVisitReminder EventType = "visit_reminder"
)

// Event represents an SSE event payload.
type Event struct {
	Type    EventType   `json:"type"`
	OfferID string      `json:"offerId,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// client represents one connected device.
type client struct {
	technicianID uuid.UUID
	events       chan Event
}

// Service manages SSE connections and per-technician delivery.
type Service struct {
	log *logger.Logger

	mu      sync.RWMutex
	clients map[uuid.UUID][]*client
}

// New creates a new SSE service.
func New(log *logger.Logger) *Service {
	return &Service{
		log:     log,
		clients: make(map[uuid.UUID][]*client),
	}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.technicianID] = append(s.clients[c.technicianID], c)
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.clients[c.technicianID]
	for i, cl := range clients {
		if cl == c {
			s.clients[c.technicianID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(s.clients[c.technicianID]) == 0 {
		delete(s.clients, c.technicianID)
	}

	close(c.events)
}

// Publish sends an event to every device the technician has connected.
// Slow consumers drop events rather than block the publisher.
func (s *Service) Publish(technicianID uuid.UUID, event Event) {
	s.mu.RLock()
	clients := s.clients[technicianID]
	s.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse_buffer_full", "technician_id", technicianID.String(), "event", string(event.Type))
		}
	}
}

// Handler returns a Gin handler for SSE connections.
func (s *Service) Handler(getTechnicianID func(*gin.Context) (uuid.UUID, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		technicianID, ok := getTechnicianID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			technicianID: technicianID,
			events:       make(chan Event, 32),
		}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"technicianId": technicianID})
		c.Writer.Flush()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close shuts down the SSE service.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, clients := range s.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	s.clients = make(map[uuid.UUID][]*client)
}

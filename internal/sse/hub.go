package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"FeedbackAnalyzer/internal/domain"
	"FeedbackAnalyzer/internal/ports"
)

// Event is one frame pushed over the stream. Exactly one of Data or
// Timestamp is set depending on the type.
type Event struct {
	Type      string               `json:"type"`
	Data      *domain.FeedbackItem `json:"data,omitempty"`
	Timestamp float64              `json:"timestamp,omitempty"`
}

const (
	eventConnected      = "connected"
	eventFeedbackUpdate = "feedback_update"
	eventHeartbeat      = "heartbeat"
)

// Frame renders the event as a wire-ready SSE frame.
func (e Event) Frame() string {
	payload, err := json.Marshal(e)
	if err != nil {
		// The event types above always marshal; guard anyway.
		payload = []byte(`{"type":"error"}`)
	}
	return fmt.Sprintf("data: %s\n\n", payload)
}

func heartbeatFrame(now time.Time) string {
	return Event{
		Type:      eventHeartbeat,
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
	}.Frame()
}

// Hub tracks the set of connected stream clients and fans persisted-state
// changes out to each client's private queue. Delivery to one client never
// blocks or fails delivery to the others.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client
	counter int
	logger  *slog.Logger
}

var _ ports.Broadcaster = (*Hub)(nil)

// NewHub builds an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{clients: map[string]*Client{}, logger: logger}
}

// Register creates and tracks a new client. The connected greeting is
// queued before the client is visible to broadcasts, so it is always the
// first frame a viewer sees.
func (h *Hub) Register() *Client {
	h.mu.Lock()
	id := fmt.Sprintf("client_%d", h.counter)
	h.counter++

	client := newClient(id, h)
	client.push(Event{Type: eventConnected}.Frame())
	h.clients[id] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("stream client connected", "client_id", id, "total", total)
	return client
}

// Unregister removes the client; safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	if c != nil {
		c.Disconnect()
	}
}

// FeedbackUpdated broadcasts the item snapshot to every registered client.
// Clients whose queue rejects the frame disconnect themselves and drop out
// of the registry; the rest are unaffected.
func (h *Hub) FeedbackUpdated(item *domain.FeedbackItem) {
	frame := Event{Type: eventFeedbackUpdate, Data: item}.Frame()

	h.mu.Lock()
	snapshot := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	delivered := 0
	for _, c := range snapshot {
		if c.push(frame) {
			delivered++
		} else {
			h.logger.Warn("dropping unresponsive stream client", "client_id", c.id)
		}
	}

	h.logger.Info("feedback update broadcast",
		"feedback_id", item.ID, "status", item.ProcessingStatus, "clients", delivered)
}

// ClientCount reports how many clients are currently registered.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	_, present := h.clients[id]
	delete(h.clients, id)
	total := len(h.clients)
	h.mu.Unlock()

	if present {
		h.logger.Info("stream client disconnected", "client_id", id, "total", total)
	}
}

package sse

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeedbackAnalyzer/internal/domain"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func decodeFrame(t *testing.T, frame string) Event {
	t.Helper()
	require.True(t, strings.HasPrefix(frame, "data: "))
	require.True(t, strings.HasSuffix(frame, "\n\n"))

	var event Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(frame, "data: "))), &event))
	return event
}

func TestRegisterDeliversConnectedEvent(t *testing.T) {
	hub := testHub()

	client := hub.Register()
	require.Equal(t, 1, hub.ClientCount())

	frame, ok := client.Next(100 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, "connected", decodeFrame(t, frame).Type)
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	hub := testHub()

	first := hub.Register()
	second := hub.Register()
	for _, c := range []*Client{first, second} {
		_, ok := c.Next(100 * time.Millisecond)
		require.True(t, ok)
	}

	item := domain.NewFeedbackItem("the checkout flow is great now", "product")
	item.ProcessingStatus = domain.StatusCompleted
	hub.FeedbackUpdated(item)

	for _, c := range []*Client{first, second} {
		frame, ok := c.Next(100 * time.Millisecond)
		require.True(t, ok)

		event := decodeFrame(t, frame)
		assert.Equal(t, "feedback_update", event.Type)
		require.NotNil(t, event.Data)
		assert.Equal(t, item.ID, event.Data.ID)
		assert.Equal(t, domain.StatusCompleted, event.Data.ProcessingStatus)
	}
}

func TestNextYieldsHeartbeatWhenIdle(t *testing.T) {
	hub := testHub()
	client := hub.Register()

	_, ok := client.Next(100 * time.Millisecond)
	require.True(t, ok)

	frame, ok := client.Next(20 * time.Millisecond)
	require.True(t, ok)

	event := decodeFrame(t, frame)
	assert.Equal(t, "heartbeat", event.Type)
	assert.Greater(t, event.Timestamp, 0.0)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := testHub()
	client := hub.Register()

	item := domain.NewFeedbackItem("filling the queue with updates", "general")
	for i := 0; i < clientQueueSize+1; i++ {
		hub.FeedbackUpdated(item)
	}

	assert.False(t, client.Connected())
	assert.Equal(t, 0, hub.ClientCount())

	_, ok := client.Next(10 * time.Millisecond)
	assert.False(t, ok)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	hub := testHub()
	client := hub.Register()

	client.Disconnect()
	client.Disconnect()
	hub.Unregister(client)

	assert.False(t, client.Connected())
	assert.Equal(t, 0, hub.ClientCount())

	_, ok := client.Next(10 * time.Millisecond)
	assert.False(t, ok)
}

func TestConnectedFrameArrivesBeforeConcurrentBroadcasts(t *testing.T) {
	hub := testHub()
	item := domain.NewFeedbackItem("updates racing a new registration", "general")

	for i := 0; i < 25; i++ {
		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 10; j++ {
				hub.FeedbackUpdated(item)
			}
		}()

		client := hub.Register()
		frame, ok := client.Next(time.Second)
		require.True(t, ok)
		assert.Equal(t, "connected", decodeFrame(t, frame).Type)

		<-done
		client.Disconnect()
	}
}

func TestBroadcastSkipsDisconnectedClients(t *testing.T) {
	hub := testHub()

	stale := hub.Register()
	live := hub.Register()
	stale.Disconnect()

	item := domain.NewFeedbackItem("only one viewer should get this", "general")
	hub.FeedbackUpdated(item)

	require.Equal(t, 1, hub.ClientCount())

	_, ok := live.Next(100 * time.Millisecond)
	require.True(t, ok)
}

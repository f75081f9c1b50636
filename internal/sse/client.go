package sse

import (
	"sync"
	"sync/atomic"
	"time"
)

// clientQueueSize bounds each client's private outbound queue. A client
// that cannot keep up is treated as disconnected rather than slowing the
// broadcast for everyone else.
const clientQueueSize = 64

// HeartbeatInterval is how long a consume call waits for a real event
// before yielding a heartbeat, keeping intermediary proxies from timing
// the connection out.
const HeartbeatInterval = time.Second

// Client is one connected viewer: a bounded queue of wire-ready frames
// plus a connected flag. It deregisters from the hub exactly once.
type Client struct {
	id        string
	hub       *Hub
	frames    chan string
	connected atomic.Bool
	closeOnce sync.Once
}

func newClient(id string, hub *Hub) *Client {
	c := &Client{
		id:     id,
		hub:    hub,
		frames: make(chan string, clientQueueSize),
	}
	c.connected.Store(true)
	return c
}

// ID returns the hub-unique client identity.
func (c *Client) ID() string {
	return c.id
}

// Connected reports whether the client is still attached.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// push enqueues a frame for the stream loop. A disconnected client is a
// no-op; a full queue disconnects the client.
func (c *Client) push(frame string) bool {
	if !c.connected.Load() {
		return false
	}

	select {
	case c.frames <- frame:
		return true
	default:
		c.Disconnect()
		return false
	}
}

// Next returns the next wire-ready frame, waiting up to timeout for a real
// event and yielding a heartbeat frame when none arrives. It returns
// ok=false once the client has disconnected.
func (c *Client) Next(timeout time.Duration) (string, bool) {
	if !c.connected.Load() {
		return "", false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case frame := <-c.frames:
		return frame, true
	case <-timer.C:
		if !c.connected.Load() {
			return "", false
		}
		return heartbeatFrame(time.Now()), true
	}
}

// Disconnect flips the connected flag and deregisters from the hub.
// Idempotent: transport close and delivery failure may race here.
func (c *Client) Disconnect() {
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		c.hub.remove(c.id)
	})
}

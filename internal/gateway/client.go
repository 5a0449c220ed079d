package gateway

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/relay"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/service"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/session"
)

const (
	// writeWait is the deadline for one outbound write.
	writeWait = 10 * time.Second
	// pongWait is how long we tolerate silence from the peer.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize bounds inbound frames; room events are tiny.
	maxMessageSize = 4096
	// sendBufferSize is the per-connection outbound queue. A participant
	// that falls this far behind starts losing frames.
	sendBufferSize = 256
)

// Client wraps one websocket connection attached to a room session. Its
// send channel is the participant's Outbox: the relay enqueues frames,
// the write pump drains them onto the wire.
type Client struct {
	conn     *websocket.Conn
	registry *session.Registry
	router   *relay.Router
	log      *logrus.Entry

	// participant is set after Registry.Join succeeds.
	participant *session.Participant

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// newClient wraps an upgraded connection. The client is not attached to
// any room until the gateway registers it.
func newClient(conn *websocket.Conn, registry *session.Registry, router *relay.Router) *Client {
	return &Client{
		conn:     conn,
		registry: registry,
		router:   router,
		log:      logrus.WithField("component", "room_gateway"),
		send:     make(chan []byte, sendBufferSize),
	}
}

// Enqueue hands a frame to the write pump without ever blocking the
// relaying goroutine. Frames for a full or closed queue are dropped.
func (c *Client) Enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close shuts the outbound queue. Called by the registry exactly once,
// after the participant can no longer be handed frames.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// run starts the write pump and blocks in the read pump until the
// connection dies or the participant leaves.
func (c *Client) run() {
	go c.writePump()
	c.readPump()
}

// readPump drives the connection's inbound side. Every exit path funnels
// through the deferred Leave, so a participant is removed from its room
// whether the client said goodbye, vanished mid-frame or tripped the read
// deadline.
func (c *Client) readPump() {
	logCtx := c.log.WithFields(logrus.Fields{
		"room_id":       c.participant.RoomID,
		"user_id":       c.participant.UserID,
		"connection_id": c.participant.ConnectionID,
	})
	defer func() {
		c.registry.Leave(c.participant.ConnectionID)
		c.conn.Close()
		logCtx.Debug("Read pump stopped")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logCtx.WithError(err).Warn("Websocket closed unexpectedly")
			}
			return
		}

		ev, err := domain.DecodeEvent(data)
		if err != nil {
			// Malformed frames are dropped; one bad message must not
			// tear down the connection.
			logCtx.WithError(err).Warn("Dropping malformed event")
			continue
		}
		if ev.Type == domain.EventLeave {
			logCtx.Debug("Participant sent leave event")
			return
		}

		if err := c.router.Publish(c.participant.ConnectionID, ev); err != nil {
			if errors.Is(err, service.ErrNotInRoom) {
				// The deferred Leave already ran on another path.
				return
			}
			logCtx.WithError(err).Warn("Dropping unroutable event")
		}
	}
}

// writePump drains the send channel onto the wire and keeps the
// connection alive with pings. It exits when the registry closes the
// outbox or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

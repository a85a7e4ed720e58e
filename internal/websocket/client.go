// Package websocket bridges live delivery channels onto WebSocket
// connections. A client owns one connection and one bus subscription;
// messages flow outward only, sends go through the HTTP API.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"village-chat/internal/bus"
	"village-chat/internal/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // Must be less than pongWait
	maxMessageSize = 512
)

// Client streams messages from a delivery channel subscription to a
// WebSocket connection.
type Client struct {
	conn          *websocket.Conn
	sub           *bus.Subscription
	participantID string
	unsubscribe   func(*bus.Subscription)
	writeMu       sync.Mutex
	closed        atomic.Bool
	done          chan struct{}
}

// NewClient wires a connection to an open subscription. The unsubscribe
// callback is invoked exactly once when either pump exits.
func NewClient(conn *websocket.Conn, sub *bus.Subscription, participantID string, unsubscribe func(*bus.Subscription)) *Client {
	return &Client{
		conn:          conn,
		sub:           sub,
		participantID: participantID,
		unsubscribe:   unsubscribe,
		done:          make(chan struct{}),
	}
}

// ReadPump drains inbound frames to keep pong handling alive and to
// detect disconnects. Inbound payloads are ignored.
func (c *Client) ReadPump() {
	defer c.teardown()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn("failed to set read deadline",
			slog.String("error", err.Error()),
			slog.String("participant_id", c.participantID))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket error",
					slog.String("error", err.Error()),
					slog.String("participant_id", c.participantID))
			}
			return
		}
	}
}

// WritePump streams subscription messages to the connection and keeps it
// alive with pings. It exits when the subscription closes or a write
// fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.teardown()
	}()

	for {
		select {
		case msg, ok := <-c.sub.C():
			if !ok {
				// Subscription was torn down underneath us
				_ = c.writeMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				slog.Error("failed to marshal message",
					slog.String("error", err.Error()),
					slog.String("message_id", msg.ID))
				continue
			}
			if err := c.writeMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.writeMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// writeMessage writes a frame under the write mutex with a deadline.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return websocket.ErrCloseSent
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// teardown releases the subscription and closes the connection. Safe to
// call from both pumps.
func (c *Client) teardown() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.done)
		c.unsubscribe(c.sub)

		c.writeMu.Lock()
		c.conn.Close()
		c.writeMu.Unlock()

		observability.WebSocketConnectionsActive.Dec()
	}
}

package chatsvc

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/potential-games/mmo-services/internal/app/domain/chat"
	"github.com/potential-games/mmo-services/internal/app/metrics"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 16 << 10
)

// Client is one websocket connection attached to the hub. A read pump decodes
// frames and hands them to the hub; a write pump serializes all writes,
// including keepalive pings.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan chat.Frame

	pingPeriod time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps an accepted websocket connection. Serve must be called to
// start the pumps.
func NewClient(hub *Hub, conn *websocket.Conn, sendBuffer int, pingPeriod time.Duration) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	if pingPeriod <= 0 {
		pingPeriod = 30 * time.Second
	}
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan chat.Frame, sendBuffer),
		pingPeriod: pingPeriod,
		done:       make(chan struct{}),
	}
}

// Serve registers the client and blocks until the connection closes.
func (c *Client) Serve() {
	c.hub.register(c)
	go c.writePump()
	c.readPump()
}

// enqueue queues a frame for delivery. A client whose buffer is full is
// dropped rather than allowed to stall the hub.
func (c *Client) enqueue(event string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	frame := chat.Frame{Event: event, Data: raw}

	select {
	case c.send <- frame:
	default:
		metrics.RecordDroppedClient()
		c.close()
	}
}

// close tears the connection down once; safe from any goroutine.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		_ = c.conn.Close()
	})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	readWait := c.pingPeriod * 2
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readWait))

		var frame chat.Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.hub.log.WithError(err).Debug("malformed frame ignored")
			continue
		}
		c.hub.handleFrame(c, frame)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

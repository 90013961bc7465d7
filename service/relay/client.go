package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aamitn/bitmutex-website-sub000/logger"
)

// Client represents one visitor connected to the gateway. Forwarding-only:
// no rooms, no auth, one browser tab per Client. All writes go through the
// buffered Send queue, consumed by a single writer goroutine, so the fan-out
// path never blocks on a slow socket.
type Client struct {
	ID     string           // Unique connection ID (opaque snowflake)
	WS     *websocket.Conn  // WebSocket connection object, nil in unit tests
	Send   chan []byte      // Outbound frame queue
	Outbox chan ChatMessage // Ordered queue of this visitor's messages to the bridge

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient creates a new visitor connection handle.
func NewClient(id string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ID:     id,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
		Outbox: make(chan ChatMessage, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// Enqueue offers a frame to the writer queue without blocking. A full queue
// means the client is too slow to keep up; the frame is dropped.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- payload:
		return true
	default:
		logger.Debugf("[relay] send queue full, dropping frame conn=%s", c.ID)
		return false
	}
}

// EnqueueOutbound offers a visitor message to the forward queue without
// blocking. The queue is drained by the connection's single forwarder pump,
// so messages keep their arrival order on the way to the bridge.
func (c *Client) EnqueueOutbound(msg ChatMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Outbox <- msg:
		return true
	default:
		logger.Warnf("[relay] outbox full, dropping message conn=%s", c.ID)
		return false
	}
}

// Close stops the writer and forwarder pumps. Idempotent; safe from any
// goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

const (
	writeWait    = 5 * time.Second
	pingInterval = 25 * time.Second
	pongWait     = 75 * time.Second
)

// WritePump drains the send queue onto the socket and keeps the connection
// alive with periodic pings. Run as the connection's single writer goroutine;
// returns when Close is called or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		if c.WS != nil {
			_ = c.WS.Close()
		}
	}()

	for {
		select {
		case <-c.done:
			_ = c.write(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case payload := <-c.Send:
			if err := c.write(websocket.TextMessage, payload); err != nil {
				logger.Debugf("[relay] write failed conn=%s err=%v", c.ID, err)
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, payload []byte) error {
	if err := c.WS.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.WS.WriteMessage(messageType, payload)
}

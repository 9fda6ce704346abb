package network

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lthibault/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

// ErrClosed is returned when sending on a closed connection
var ErrClosed = errors.New("connection closed")

// Connection wraps the WebSocket connection with additional fields
type Connection struct {
	ws   *websocket.Conn
	send chan []byte
	log  log.Logger

	once sync.Once
	done chan struct{}
}

// NewConnection creates a new connection wrapper
func NewConnection(ws *websocket.Conn, logger log.Logger) *Connection {
	return &Connection{
		ws:   ws,
		send: make(chan []byte, 256),
		log:  logger.WithField("remote", ws.RemoteAddr().String()),
		done: make(chan struct{}),
	}
}

// Log returns the connection's logger
func (c *Connection) Log() log.Logger {
	return c.log
}

// ReadPump reads messages from the WebSocket connection until it fails or
// ctx ends. Each message is handled before the next one is read.
func (c *Connection) ReadPump(ctx context.Context, h MessageHandler) {
	defer c.Close()

	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("error reading message")
			}
			return
		}

		h.HandleMessage(ctx, c, message)
	}
}

// WritePump writes queued messages and keeps the connection alive with pings
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))

			w, err := c.ws.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(message); err != nil {
				return
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// SendMessage queues a message for the client. A client that cannot keep
// up with its queue is disconnected.
func (c *Connection) SendMessage(msg interface{}) error {
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- messageBytes:
		return nil
	default:
		c.log.Warn("send queue full, dropping client")
		c.Close()
		return ErrClosed
	}
}

// Close stops both pumps
func (c *Connection) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// MessageHandler interface for handling messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, conn *Connection, message []byte)
}

package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"orderflow/internal/adapters/out/notify"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	clientBufferSize = 64
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 9 / 10
)

// StatusHub keeps the websocket clients of GET /ws/orders and fans status events
// out to them.
type StatusHub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*statusClient]struct{}
}

type statusClient struct {
	conn *websocket.Conn
	send chan notify.StatusEvent
	once sync.Once
}

func (c *statusClient) close() {
	c.once.Do(func() { close(c.send) })
}

func NewStatusHub(logger *slog.Logger) *StatusHub {
	return &StatusHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger.With("component", "status_hub"),
		clients: make(map[*statusClient]struct{}),
	}
}

// Broadcast queues the event for every client. A client whose buffer is full is
// disconnected rather than allowed to stall the others.
func (h *StatusHub) Broadcast(event notify.StatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			h.logger.Warn("Dropping slow websocket client", "remote", c.conn.RemoteAddr().String())
			delete(h.clients, c)
			c.close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *StatusHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *StatusHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

// ServeWS handles GET /ws/orders.
func (h *StatusHub) ServeWS(ctx echo.Context) error {
	conn, err := h.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		// The upgrader has already written an HTTP error response.
		h.logger.WarnContext(ctx.Request().Context(), "Websocket upgrade failed", "error", err)
		return nil
	}

	c := &statusClient{conn: conn, send: make(chan notify.StatusEvent, clientBufferSize)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("Websocket client connected", "clients", total)

	go h.writePump(c)
	h.readPump(c)
	return nil
}

// readPump discards client messages and detects disconnects.
func (h *StatusHub) readPump(c *statusClient) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			c.close()
		}
		total := len(h.clients)
		h.mu.Unlock()
		h.logger.Info("Websocket client disconnected", "clients", total)
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer of c.conn.
func (h *StatusHub) writePump(c *statusClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
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

// StatusSource feeds status events; notify.RedisStatusSubscriber satisfies it.
type StatusSource interface {
	Run(ctx context.Context, deliver func(notify.StatusEvent)) error
}

// Relay broadcasts everything src delivers until ctx is done.
func (h *StatusHub) Relay(ctx context.Context, src StatusSource) error {
	return src.Run(ctx, h.Broadcast)
}

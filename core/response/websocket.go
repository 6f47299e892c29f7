package response

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/pluginbridge/core/handler"
)

// DefaultWSPingInterval is how often WebSocketStream pings an idle client.
const DefaultWSPingInterval = 30 * time.Second

const wsWriteWait = 10 * time.Second

type wsConfig struct {
	upgrader       *websocket.Upgrader
	responseHeader http.Header
	pingInterval   time.Duration
	onConnect      func(context.Context, *websocket.Conn) error
	onDisconnect   func(context.Context, *websocket.Conn)
	onError        func(context.Context, error)
}

// WebSocketOption configures WebSocket responses.
type WebSocketOption func(*wsConfig)

func WithWSReadBuffer(size int) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.ReadBufferSize = size
	}
}

func WithWSWriteBuffer(size int) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.WriteBufferSize = size
	}
}

func WithWSHandshakeTimeout(timeout time.Duration) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.HandshakeTimeout = timeout
	}
}

func WithWSOriginCheck(fn func(r *http.Request) bool) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = fn
	}
}

func WithWSAllowAnyOrigin() WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
}

func WithWSUpgradeHeaders(header http.Header) WebSocketOption {
	return func(c *wsConfig) {
		c.responseHeader = header
	}
}

// WithWSPingInterval sets the ping period used by WebSocketStream.
// Zero disables pings.
func WithWSPingInterval(d time.Duration) WebSocketOption {
	return func(c *wsConfig) {
		c.pingInterval = d
	}
}

func WithWSOnConnect(fn func(context.Context, *websocket.Conn) error) WebSocketOption {
	return func(c *wsConfig) {
		c.onConnect = fn
	}
}

func WithWSOnDisconnect(fn func(context.Context, *websocket.Conn)) WebSocketOption {
	return func(c *wsConfig) {
		c.onDisconnect = fn
	}
}

func WithWSErrorHandler(fn func(context.Context, error)) WebSocketOption {
	return func(c *wsConfig) {
		c.onError = fn
	}
}

func newWSConfig(opts []WebSocketOption) *wsConfig {
	cfg := &wsConfig{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingInterval: DefaultWSPingInterval,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WebSocket upgrades the connection and runs messageHandler until it returns.
// Upgrade failures are reported to the error handler option; gorilla has
// already written the HTTP error by then.
func WebSocket(messageHandler func(context.Context, *websocket.Conn) error, opts ...WebSocketOption) handler.Response {
	return newWSConfig(opts).serve(messageHandler)
}

func (cfg *wsConfig) serve(messageHandler func(context.Context, *websocket.Conn) error) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		conn, err := cfg.upgrader.Upgrade(w, r, cfg.responseHeader)
		if err != nil {
			if cfg.onError != nil {
				cfg.onError(r.Context(), err)
			}
			return nil
		}
		defer func() {
			_ = conn.Close()
			if cfg.onDisconnect != nil {
				cfg.onDisconnect(r.Context(), conn)
			}
		}()

		if cfg.onConnect != nil {
			if err := cfg.onConnect(r.Context(), conn); err != nil {
				if cfg.onError != nil {
					cfg.onError(r.Context(), err)
				}
				return nil
			}
		}

		if err := messageHandler(r.Context(), conn); err != nil {
			if cfg.onError != nil {
				cfg.onError(r.Context(), err)
			}
		}

		return nil
	}
}

// WebSocketStream pushes every value from events to the client as a JSON
// text message. Incoming messages are discarded; the stream ends when the
// client goes away, the request context is done, or events is closed.
func WebSocketStream(events <-chan any, opts ...WebSocketOption) handler.Response {
	cfg := newWSConfig(opts)
	return cfg.serve(func(ctx context.Context, conn *websocket.Conn) error {
		// The read loop handles control frames and notices disconnects.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		var ping <-chan time.Time
		if cfg.pingInterval > 0 {
			ticker := time.NewTicker(cfg.pingInterval)
			defer ticker.Stop()
			ping = ticker.C
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-gone:
				return nil
			case <-ping:
				deadline := time.Now().Add(wsWriteWait)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return err
				}
			case msg, ok := <-events:
				if !ok {
					deadline := time.Now().Add(wsWriteWait)
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
					return nil
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(msg); err != nil {
					return err
				}
			}
		}
	})
}

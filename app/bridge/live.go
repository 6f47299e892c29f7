package bridge

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrymomot/pluginbridge/core/correlation"
	"github.com/dmitrymomot/pluginbridge/core/handler"
	"github.com/dmitrymomot/pluginbridge/core/logger"
	"github.com/dmitrymomot/pluginbridge/core/response"
)

// Notification types sent over live channels.
const (
	NotificationConnected     = "connected"
	NotificationCommandResult = "command_result"
)

// Notification is the payload pushed to live observers.
type Notification struct {
	Type      string `json:"type"`
	CommandID string `json:"commandId,omitempty"`
	Success   *bool  `json:"success,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func connectedNotification() Notification {
	return Notification{
		Type:      NotificationConnected,
		Message:   "subscribed to command results",
		Timestamp: time.Now().UnixMilli(),
	}
}

func resultNotification(r correlation.Result) Notification {
	success := r.Success
	n := Notification{
		Type:      NotificationCommandResult,
		CommandID: r.CommandID,
		Success:   &success,
		Timestamp: r.Timestamp,
	}
	if !r.Success {
		n.Message = r.Error
	}
	return n
}

// subscribe opens a live feed for one connection. The connected
// acknowledgement is queued first. The returned func unsubscribes; the
// channel is never closed so a late delivery cannot panic.
func (a *App) subscribe(ctx context.Context, transport string, wrap func(Notification) any) (<-chan any, func()) {
	size := a.config.LiveBuffer
	if size <= 0 {
		size = 64
	}
	events := make(chan any, size)
	events <- wrap(connectedNotification())

	unsubscribe := a.correlator.OnResult(func(r correlation.Result) {
		select {
		case events <- wrap(resultNotification(r)):
		default:
			a.metrics.liveDropped.Inc()
			a.logger.WarnContext(ctx, "live client too slow, notification dropped",
				logger.Component("live"),
				logger.CommandID(r.CommandID))
		}
	})

	gauge := a.metrics.liveConnections.WithLabelValues(transport)
	gauge.Inc()

	return events, func() {
		unsubscribe()
		gauge.Dec()
	}
}

// streamRequest derives a request whose context also ends when the app stops.
func (a *App) streamRequest(r *http.Request) (*http.Request, func()) {
	ctx, cancel := context.WithCancel(r.Context())
	go func() {
		select {
		case <-a.stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	return r.WithContext(ctx), cancel
}

// events handles GET /api/events, the Server-Sent Events live channel.
func (a *App) events(*Context) handler.Response {
	keepAlive := a.config.LiveKeepAlive
	return func(w http.ResponseWriter, r *http.Request) error {
		r, cancel := a.streamRequest(r)
		defer cancel()

		events, unsubscribe := a.subscribe(r.Context(), "sse", func(n Notification) any {
			return response.Event{Name: n.Type, ID: n.CommandID, Data: n}
		})
		defer unsubscribe()

		opts := []response.EventOption{
			response.WithSSEErrorHandler(a.logStreamError),
		}
		if keepAlive > 0 {
			opts = append(opts, response.WithKeepAlive(keepAlive))
		} else {
			opts = append(opts, response.WithoutKeepAlive())
		}
		return response.SSE(events, opts...)(w, r)
	}
}

// websocket handles GET /ws with the same payloads as the SSE channel.
func (a *App) websocket(*Context) handler.Response {
	ping := a.config.LiveKeepAlive
	return func(w http.ResponseWriter, r *http.Request) error {
		r, cancel := a.streamRequest(r)
		defer cancel()

		events, unsubscribe := a.subscribe(r.Context(), "websocket", func(n Notification) any { return n })
		defer unsubscribe()

		return response.WebSocketStream(events,
			response.WithWSAllowAnyOrigin(),
			response.WithWSPingInterval(ping),
			response.WithWSErrorHandler(a.logStreamError),
		)(w, r)
	}
}

func (a *App) logStreamError(ctx context.Context, err error) {
	a.logger.DebugContext(ctx, "live stream error",
		logger.Component("live"),
		logger.Error(err))
}

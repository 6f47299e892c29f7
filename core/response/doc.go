// Package response provides handler.Response constructors: plain text,
// JSON, structured errors, Server-Sent Events and WebSocket streams.
//
// # Basic Usage
//
//	func getResult(ctx handler.Context) handler.Response {
//		res, ok := store.Get(ctx.Param("id"))
//		if !ok {
//			return response.Error(response.ErrNotFound.WithMessage("no result"))
//		}
//		return response.JSON(res)
//	}
//
// # Errors
//
// HTTPError carries a status, a machine-readable code, a message and optional
// details. Handlers return it through Error; the router's error handler
// renders it. JSONErrorHandler produces
//
//	{"code":"not_found","message":"no result","details":{...}}
//
// Errors that are not HTTPError but implement StatusCode() int are mapped
// to the predefined error for that status; anything else becomes 500.
//
// # Live streams
//
// SSE and WebSocketStream both drain a channel until it is closed or the
// client disconnects:
//
//	events := make(chan any, 16)
//	events <- response.Event{Name: "connected", Data: ack}
//	return response.SSE(events, response.WithKeepAlive(15*time.Second))
package response

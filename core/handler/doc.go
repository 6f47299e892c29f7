// Package handler defines the types shared by the router, the middleware and
// the response helpers.
//
// A HandlerFunc inspects the request through its Context and returns a
// Response; the router renders that Response and hands any error it returns
// to the ErrorHandler. Keeping the decision and the rendering separate lets
// middleware wrap the rendering step, for example to add headers or to log
// the final status:
//
//	func getResult(ctx *bridge.Context) handler.Response {
//		res, ok := correlator.GetResult(ctx.Param("id"))
//		if !ok {
//			return response.Error(response.ErrNotFound)
//		}
//		return response.JSON(res)
//	}
//
// Context embeds context.Context, so a handler can pass it straight to
// blocking calls such as a long-poll wait; they end when the client goes away.
package handler

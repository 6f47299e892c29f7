// Package router provides a generic HTTP router whose handlers return
// handler.Response values instead of writing to the response directly.
//
// Path matching is backed by github.com/go-chi/chi/v5, so patterns use chi
// syntax ("/results/{id}", "/static/*"). On top of it the router adds:
//
//   - a typed request context C created per request by a context factory;
//   - middlewares of type handler.Middleware[C], chained at registration;
//   - a single error handler receiving every error returned by a response,
//     not-found and method-not-allowed conditions, and recovered panics
//     (wrapped as PanicError).
//
// # Basic Usage
//
//	r := router.New[*router.Context]()
//
//	r.Get("/results/{id}", func(ctx *router.Context) handler.Response {
//		return response.JSON(lookup(ctx.Param("id")))
//	})
//
//	http.ListenAndServe(":8080", r)
//
// # Custom Context
//
// Applications usually define their own context embedding *router.Context
// and register a factory:
//
//	r := router.New[*app.Context](
//		router.WithContextFactory(app.NewContext),
//		router.WithErrorHandler(app.ErrorHandler),
//		router.WithMiddleware(middleware.RequestID[*app.Context]()),
//	)
//
// # Middleware
//
// Use must be called before any route is registered; it panics otherwise.
// With and Group create inline routers that add middlewares to a subset of
// routes:
//
//	r.With(auth).Post("/commands", submit)
//
// # Errors
//
// Without WithErrorHandler the router writes http.Error with the status
// from the error's StatusCode() method, or 500.
package router

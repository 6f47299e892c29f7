// Package bridge is the HTTP application that connects callers with the
// plugin executor.
//
// Callers submit commands with POST /api/commands. The executor pulls them
// from GET /api/commands/next, runs them and reports back on
// POST /api/results. Callers read results immediately or long-poll on
// GET /api/results/{id}?wait=true&timeout=<ms>, and observers follow every
// completed result over Server-Sent Events (/api/events) or a WebSocket (/ws).
//
//	app, err := bridge.NewApp(bridge.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	return app.Run(ctx)
//
// Run stops on context cancellation: outstanding waits are released, live
// streams are closed and the server drains in-flight requests.
package bridge

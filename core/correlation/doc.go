// Package correlation matches asynchronous executor results to the commands
// that produced them.
//
// A Correlator owns four pieces of state behind a single mutex:
//
//   - the result store: completed results keyed by command ID, evicted after
//     a retention window;
//   - the pending registry: command IDs dispatched but not yet answered;
//   - the waiter manager: callers long-polling for a specific ID, each with
//     its own timer;
//   - the subscription bus: observers notified of every stored result.
//
// Typical flow:
//
//	c := correlation.New(correlation.WithLogger(log))
//	go c.Start(ctx) // periodic eviction
//	defer c.Shutdown()
//
//	id, _ := c.Submit(correlation.Command{Type: "create-frame"})
//
//	// executor side, usually an HTTP handler
//	c.AddResult(correlation.Result{CommandID: id, Success: true})
//
//	// caller side
//	res, ok := c.WaitForResult(ctx, id, 30*time.Second)
//
// Each ID moves through UNKNOWN → PENDING → COMPLETED. COMPLETED is terminal:
// a repeated AddResult replaces the payload (last write wins), reaches new
// waiters and subscribers, and never re-resolves a waiter that already
// returned.
//
// Timeouts and unknown IDs are ordinary outcomes reported through the boolean
// results; errors are returned only for contract violations such as an empty
// command ID.
package correlation

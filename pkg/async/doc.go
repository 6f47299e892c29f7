// Package async provides a generic single-assignment Future.
//
// A Future is created together with its resolver by NewPromise. The first
// call to the resolver wins; later calls are ignored and report false, which
// lets independent producers (a result arriving, a timer firing, a client
// disconnecting) race to complete the same Future without coordination:
//
//	future, resolve := async.NewPromise[Result]()
//
//	timer := time.AfterFunc(timeout, func() {
//		resolve(Result{}, async.ErrTimeout)
//	})
//
//	// elsewhere
//	if resolve(res, nil) {
//		timer.Stop()
//	}
//
//	res, err := future.AwaitContext(ctx)
//
// Awaiting never polls: callers block on a channel that is closed exactly
// once when the value is assigned.
package async

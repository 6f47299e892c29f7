// Package outbox is the in-memory FIFO of commands waiting to be pulled by
// the plugin executor.
//
// Producers Push commands; the executor calls Next, which suspends until a
// command is available or the timeout elapses. Delivery is at-most-once: a
// command handed out by Next is gone from the outbox whether or not the
// executor ever reports a result.
//
//	ob := outbox.New(outbox.WithCapacity(1000))
//	_ = ob.Push(cmd)
//	cmd, ok := ob.Next(ctx, 30*time.Second)
package outbox

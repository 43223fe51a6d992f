// Package scheduler runs deferred zero-argument tasks on a later turn of a
// single loop, in the order they were deferred.
//
// The contract the connection handle relies on:
//
//   - tasks never run on the goroutine that defers them while Defer is on the
//     stack; in automatic mode they run on the loop goroutine, in manual mode
//     only when the owner calls RunPending, Drain or Flush;
//   - tasks run one at a time, first in first out, so tasks deferred by one
//     call run before any task deferred by a later call;
//   - there is no cancellation of a queued task; handlers must check the
//     state they act on when they finally run.
//
// Manual mode exists for tests that need to observe the state between a
// call and the tasks it queued:
//
//	sched := scheduler.NewManual()
//	h, _ := connection.New("ws://example.com", connection.WithScheduler(sched))
//	// h is still opening here
//	sched.Drain()
//	// open, transportOpen and connected have fired
package scheduler

// Package connection implements a mock of a remote media engine client.
//
// A Handle simulates the lifecycle of an asynchronous network client without
// touching the network. Open moves the handle to Connecting and defers three
// notifications on a FIFO scheduler:
//
//	open -> transportOpen -> connected
//
// The handle becomes Connected, and exposes its engine capability, only when
// the connected task runs. Close is idempotent and emits "close"
// synchronously. Destroy closes the handle, detaches its worker registry from
// the engine feed and makes every later call fail with ErrInvalidState.
//
// Tests usually drive the scheduler by hand:
//
//	sched := scheduler.NewManual()
//	h, _ := connection.New("ws://example.com", connection.WithScheduler(sched))
//	h.ReadyState() // Open
//	sched.Drain()
//	h.ReadyState() // Connected
//
// Deferred tasks remember the Open call that queued them. A task whose Open
// was superseded by Close (or Close followed by another Open) is discarded
// when it runs.
package connection

// Package engine provides the opaque media engine capability handed out by a
// connected handle, plus the process-wide feed that announces new workers.
//
// The Fake engine is a state-based test double: it never spawns a real
// worker process. Each Worker carries the process id it reports for resource
// sampling (the current process by default) and a Done channel that is closed
// exactly once when the worker is closed.
//
// Every worker created through an engine is announced on the engine's Feed.
// Handles attach their worker registry to the same feed:
//
//	feed := engine.NewFeed()
//	eng := engine.NewFake(feed)
//	w, _ := eng.CreateWorker(ctx, engine.WorkerSettings{})
//	// subscribers of feed receive a WorkerSpawned event carrying w
package engine

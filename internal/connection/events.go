package connection

// Event names emitted by a Handle.
const (
	EventOpen          = "open"
	EventTransportOpen = "transportOpen"
	EventConnected     = "connected"
	EventClose         = "close"
	// EventEngine carries the engine.Engine on connect and nil on close.
	EventEngine = "engine"
)

// Events lists every event a Handle emits.
var Events = []string{EventOpen, EventTransportOpen, EventConnected, EventClose, EventEngine}

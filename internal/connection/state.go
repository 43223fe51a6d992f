package connection

import (
	"github.com/zjrosen/remote-engine-mock/internal/engine"
)

// ReadyState is the externally visible connection state. Values follow the
// WebSocket readyState enumeration, extended with Connected.
type ReadyState int

const (
	Open      ReadyState = 1
	Closed    ReadyState = 3
	Connected ReadyState = 4
)

func (r ReadyState) String() string {
	switch r {
	case Open:
		return "OPEN"
	case Closed:
		return "CLOSED"
	case Connected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// State is the handle's internal state: one of StateClosed, StateConnecting,
// StateConnected or StateDestroyed.
type State interface {
	isState()
	String() string
}

// StateClosed is the initial state, re-entered by Close.
type StateClosed struct{}

// StateConnecting is entered synchronously by Open.
type StateConnecting struct{}

// StateConnected holds the engine capability granted when the connected
// task runs.
type StateConnected struct {
	Engine engine.Engine
}

// StateDestroyed is terminal.
type StateDestroyed struct{}

func (StateClosed) isState()     {}
func (StateConnecting) isState() {}
func (StateConnected) isState()  {}
func (StateDestroyed) isState()  {}

func (StateClosed) String() string     { return "closed" }
func (StateConnecting) String() string { return "connecting" }
func (StateConnected) String() string  { return "connected" }
func (StateDestroyed) String() string  { return "destroyed" }

// readyState derives the public value; ok is false once destroyed.
func readyState(s State) (ReadyState, bool) {
	switch s.(type) {
	case StateConnected:
		return Connected, true
	case StateClosed:
		return Closed, true
	case StateConnecting:
		return Open, true
	default:
		return 0, false
	}
}

package presentation

import (
	"time"

	"github.com/zjrosen/remote-engine-mock/internal/engine"
)

// EventDTO is one line of a handle's event timeline.
type EventDTO struct {
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	Event   string        `json:"event" yaml:"event"`
	Detail  string        `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// FromEvent converts an emitted event into a DTO. The engine event carries
// the engine when attached and nil when detached.
func FromEvent(event string, payload any, elapsed time.Duration) EventDTO {
	dto := EventDTO{Elapsed: elapsed, Event: event}
	switch p := payload.(type) {
	case engine.Engine:
		dto.Detail = "attached " + p.ID()
	case nil:
		if event == "engine" {
			dto.Detail = "detached"
		}
	}
	return dto
}

// WorkerDTO describes a fake worker for listing.
type WorkerDTO struct {
	ID  string `json:"id" yaml:"id"`
	PID int    `json:"pid" yaml:"pid"`
}

// FromWorker converts a worker to a DTO.
func FromWorker(w *engine.Worker) WorkerDTO {
	return WorkerDTO{ID: w.ID(), PID: w.PID()}
}

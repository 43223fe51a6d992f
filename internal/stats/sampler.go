package stats

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrProcessNotFound is returned by a PidSampler when the process is gone.
var ErrProcessNotFound = errors.New("process not found")

// HostSampler samples host metrics.
type HostSampler interface {
	SampleHost(ctx context.Context) (HostMetrics, error)
}

// ProcessSampler samples metrics of the current process.
type ProcessSampler interface {
	SampleProcess(ctx context.Context) (ProcessMetrics, error)
}

// PidSampler samples resource usage of a single process.
type PidSampler interface {
	SamplePid(ctx context.Context, pid int) (Usage, error)
}

// Releaser is implemented by samplers holding state between samples.
type Releaser interface {
	Release()
}

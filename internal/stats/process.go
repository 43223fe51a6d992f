package stats

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/c9s/goprocinfo/linux"
)

// processStart anchors the monotonic clock and process uptime.
var processStart = time.Now()

// RuntimeProcess samples the current process from the Go runtime, getrusage
// and procfs.
type RuntimeProcess struct {
	root string
}

// NewRuntimeProcess creates a ProcessSampler. root is the procfs mount point
// used for the resident set size; empty means /proc.
func NewRuntimeProcess(root string) *RuntimeProcess {
	if root == "" {
		root = DefaultProcRoot
	}
	return &RuntimeProcess{root: root}
}

// SampleProcess implements ProcessSampler.
func (p *RuntimeProcess) SampleProcess(ctx context.Context) (ProcessMetrics, error) {
	if err := ctx.Err(); err != nil {
		return ProcessMetrics{}, err
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	ru, err := getrusage()
	if err != nil {
		return ProcessMetrics{}, err
	}

	m := ProcessMetrics{
		PID:               os.Getpid(),
		ConstrainedMemory: memoryLimit(),
		CPUUsage: CPUUsage{
			User:   ru.UserCPUTime,
			System: ru.SystemCPUTime,
		},
		HRTime: int64(time.Since(processStart)),
		MemoryUsage: MemoryUsage{
			RSS:       p.rss(),
			HeapTotal: ms.HeapSys,
			HeapUsed:  ms.HeapAlloc,
			Stack:     ms.StackSys,
			Sys:       ms.Sys,
		},
		ResourceUsage: ru,
		Uptime:        time.Since(processStart).Seconds(),
	}
	return m, nil
}

// rss falls back to the runtime's view when procfs is unavailable.
func (p *RuntimeProcess) rss() uint64 {
	path := filepath.Join(p.root, strconv.Itoa(os.Getpid()), "stat")
	st, err := linux.ReadProcessStat(path)
	if err != nil {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return ms.Sys
	}
	return uint64(st.Rss) * uint64(os.Getpagesize())
}

func memoryLimit() uint64 {
	limit := debug.SetMemoryLimit(-1)
	if limit <= 0 || limit == math.MaxInt64 {
		return 0
	}
	return uint64(limit)
}

package stats

import (
	"context"
	"path/filepath"
	"runtime"

	"github.com/c9s/goprocinfo/linux"

	"github.com/zjrosen/remote-engine-mock/internal/log"
)

// DefaultProcRoot is the procfs mount point.
const DefaultProcRoot = "/proc"

// ProcHost reads host metrics from procfs.
// Files that cannot be read leave their fields zero; procfs is absent on
// non-Linux hosts and a partial snapshot is still useful there.
type ProcHost struct {
	root string
}

// NewProcHost creates a HostSampler reading from root. Empty means /proc.
func NewProcHost(root string) *ProcHost {
	if root == "" {
		root = DefaultProcRoot
	}
	return &ProcHost{root: root}
}

func (h *ProcHost) path(name string) string {
	return filepath.Join(h.root, name)
}

// SampleHost implements HostSampler.
func (h *ProcHost) SampleHost(ctx context.Context) (HostMetrics, error) {
	if err := ctx.Err(); err != nil {
		return HostMetrics{}, err
	}

	m := HostMetrics{
		Parallelism: runtime.GOMAXPROCS(0),
		LoadAverage: []float64{0, 0, 0},
	}

	if mem, err := linux.ReadMemInfo(h.path("meminfo")); err != nil {
		log.Warn(log.CatStats, "Failed to read meminfo", "error", err)
	} else {
		m.TotalMemory = uint64(mem.MemTotal) * 1024
		m.FreeMemory = uint64(mem.MemAvailable) * 1024
		if m.FreeMemory == 0 {
			m.FreeMemory = uint64(mem.MemFree) * 1024
		}
	}

	if load, err := linux.ReadLoadAvg(h.path("loadavg")); err != nil {
		log.Warn(log.CatStats, "Failed to read loadavg", "error", err)
	} else {
		m.LoadAverage = []float64{load.Last1Min, load.Last5Min, load.Last15Min}
	}

	if up, err := linux.ReadUptime(h.path("uptime")); err != nil {
		log.Warn(log.CatStats, "Failed to read uptime", "error", err)
	} else {
		m.Uptime = up.Total
	}

	m.CPUs = h.cpus()
	return m, nil
}

// cpus zips /proc/cpuinfo processors with the per-core lines of /proc/stat.
func (h *ProcHost) cpus() []CPU {
	var (
		infos []linux.Processor
		times []linux.CPUStat
	)
	if info, err := linux.ReadCPUInfo(h.path("cpuinfo")); err != nil {
		log.Warn(log.CatStats, "Failed to read cpuinfo", "error", err)
	} else {
		infos = info.Processors
	}
	if st, err := linux.ReadStat(h.path("stat")); err != nil {
		log.Warn(log.CatStats, "Failed to read stat", "error", err)
	} else {
		times = st.CPUStats
	}

	n := max(len(infos), len(times))
	if n == 0 {
		return nil
	}
	cpus := make([]CPU, n)
	for i := range cpus {
		if i < len(infos) {
			cpus[i].Model = infos[i].ModelName
			cpus[i].Speed = infos[i].MHz
		}
		if i < len(times) {
			t := times[i]
			cpus[i].Times = CPUTimes{
				User: uint64(t.User),
				Nice: uint64(t.Nice),
				Sys:  uint64(t.System),
				Idle: uint64(t.Idle),
				IRQ:  uint64(t.IRQ),
			}
		}
	}
	return cpus
}

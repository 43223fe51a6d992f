package stats

import "time"

// Snapshot is a point-in-time diagnostics value. It is never cached.
type Snapshot struct {
	SampledAt time.Time      `json:"sampled_at" yaml:"sampled_at"`
	Host      HostMetrics    `json:"host" yaml:"host"`
	Process   ProcessMetrics `json:"process" yaml:"process"`
	// Workers is keyed by pid. Nil when no worker is tracked.
	Workers map[int]Usage `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// HostMetrics describes the machine the process runs on.
type HostMetrics struct {
	Parallelism int       `json:"parallelism" yaml:"parallelism"`
	CPUs        []CPU     `json:"cpus" yaml:"cpus"`
	FreeMemory  uint64    `json:"free_memory" yaml:"free_memory"`
	TotalMemory uint64    `json:"total_memory" yaml:"total_memory"`
	LoadAverage []float64 `json:"load_average" yaml:"load_average"`
	Uptime      float64   `json:"uptime" yaml:"uptime"` // seconds
}

// CPU describes one logical core. Times are in clock ticks.
type CPU struct {
	Model string   `json:"model" yaml:"model"`
	Speed float64  `json:"speed" yaml:"speed"` // MHz
	Times CPUTimes `json:"times" yaml:"times"`
}

// CPUTimes holds cumulative per-core times.
type CPUTimes struct {
	User uint64 `json:"user" yaml:"user"`
	Nice uint64 `json:"nice" yaml:"nice"`
	Sys  uint64 `json:"sys" yaml:"sys"`
	Idle uint64 `json:"idle" yaml:"idle"`
	IRQ  uint64 `json:"irq" yaml:"irq"`
}

// ProcessMetrics describes the current process.
type ProcessMetrics struct {
	PID int `json:"pid" yaml:"pid"`
	// ConstrainedMemory is the soft memory limit in bytes, 0 when unlimited.
	ConstrainedMemory uint64        `json:"constrained_memory" yaml:"constrained_memory"`
	CPUUsage          CPUUsage      `json:"cpu_usage" yaml:"cpu_usage"`
	HRTime            int64         `json:"hrtime" yaml:"hrtime"` // monotonic nanoseconds
	MemoryUsage       MemoryUsage   `json:"memory_usage" yaml:"memory_usage"`
	ResourceUsage     ResourceUsage `json:"resource_usage" yaml:"resource_usage"`
	Uptime            float64       `json:"uptime" yaml:"uptime"` // seconds
}

// CPUUsage is cumulative CPU time in microseconds.
type CPUUsage struct {
	User   int64 `json:"user" yaml:"user"`
	System int64 `json:"system" yaml:"system"`
}

// MemoryUsage is reported in bytes.
type MemoryUsage struct {
	RSS       uint64 `json:"rss" yaml:"rss"`
	HeapTotal uint64 `json:"heap_total" yaml:"heap_total"`
	HeapUsed  uint64 `json:"heap_used" yaml:"heap_used"`
	Stack     uint64 `json:"stack" yaml:"stack"`
	Sys       uint64 `json:"sys" yaml:"sys"`
}

// ResourceUsage mirrors getrusage(2) for the current process.
type ResourceUsage struct {
	UserCPUTime            int64 `json:"user_cpu_time" yaml:"user_cpu_time"`     // microseconds
	SystemCPUTime          int64 `json:"system_cpu_time" yaml:"system_cpu_time"` // microseconds
	MaxRSS                 int64 `json:"max_rss" yaml:"max_rss"`                 // kilobytes
	MinorPageFaults        int64 `json:"minor_page_faults" yaml:"minor_page_faults"`
	MajorPageFaults        int64 `json:"major_page_faults" yaml:"major_page_faults"`
	FSRead                 int64 `json:"fs_read" yaml:"fs_read"`
	FSWrite                int64 `json:"fs_write" yaml:"fs_write"`
	VoluntaryCtxSwitches   int64 `json:"voluntary_context_switches" yaml:"voluntary_context_switches"`
	InvoluntaryCtxSwitches int64 `json:"involuntary_context_switches" yaml:"involuntary_context_switches"`
}

// Usage is the resource usage of one worker process.
type Usage struct {
	PID       int       `json:"pid" yaml:"pid"`
	PPID      int       `json:"ppid" yaml:"ppid"`
	CPU       float64   `json:"cpu" yaml:"cpu"`         // percent since the previous sample
	Memory    uint64    `json:"memory" yaml:"memory"`   // resident bytes
	CTime     int64     `json:"ctime" yaml:"ctime"`     // CPU milliseconds
	Elapsed   int64     `json:"elapsed" yaml:"elapsed"` // milliseconds since process start
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

package stats

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/c9s/goprocinfo/linux"
	"github.com/go-faster/errors"

	"github.com/zjrosen/remote-engine-mock/internal/cachemanager"
	"github.com/zjrosen/remote-engine-mock/internal/log"
)

// clockTicks is USER_HZ, the unit of /proc/<pid>/stat times.
const clockTicks = 100

// DefaultHistoryTTL is how long a pid's previous CPU sample is kept.
const DefaultHistoryTTL = time.Minute

// pidSample is the CPU history kept between two samples of the same pid.
type pidSample struct {
	ticks     uint64  // utime + stime
	uptime    float64 // host uptime at sample time, seconds
	starttime uint64  // distinguishes a reused pid
}

// ProcPid samples worker processes from /proc/<pid>/stat. CPU percentages
// are computed against the previous sample of the same pid when one is
// cached, else against the process lifetime.
type ProcPid struct {
	root     string
	ttl      time.Duration
	pageSize uint64
	history  cachemanager.CacheManager[pidSample]
}

// PidOption configures a ProcPid.
type PidOption func(*ProcPid)

// WithHistoryTTL sets how long CPU history is kept per pid.
func WithHistoryTTL(ttl time.Duration) PidOption {
	return func(p *ProcPid) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// NewProcPid creates a PidSampler reading from root. Empty means /proc.
func NewProcPid(root string, opts ...PidOption) *ProcPid {
	if root == "" {
		root = DefaultProcRoot
	}
	p := &ProcPid{
		root:     root,
		ttl:      DefaultHistoryTTL,
		pageSize: uint64(os.Getpagesize()),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.history = cachemanager.NewInMemoryCacheManager[pidSample]("pid-cpu-history", p.ttl, 2*p.ttl)
	return p
}

// SamplePid implements PidSampler.
func (p *ProcPid) SamplePid(ctx context.Context, pid int) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	if pid <= 0 {
		return Usage{}, errors.Errorf("invalid pid %d", pid)
	}

	st, err := linux.ReadProcessStat(filepath.Join(p.root, strconv.Itoa(pid), "stat"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Usage{}, errors.Wrapf(ErrProcessNotFound, "pid %d", pid)
		}
		return Usage{}, errors.Wrapf(err, "read stat of pid %d", pid)
	}
	up, err := linux.ReadUptime(filepath.Join(p.root, "uptime"))
	if err != nil {
		return Usage{}, errors.Wrap(err, "read uptime")
	}

	cur := pidSample{
		ticks:     uint64(st.Utime) + uint64(st.Stime),
		uptime:    up.Total,
		starttime: uint64(st.Starttime),
	}
	started := float64(cur.starttime) / clockTicks

	// Without usable history the CPU share covers the whole process lifetime.
	base := pidSample{uptime: started, starttime: cur.starttime}
	key := "pid:" + strconv.Itoa(pid)
	if prev, ok := p.history.Swap(key, cur, p.ttl); ok && prev.starttime == cur.starttime && prev.uptime < cur.uptime {
		base = prev
	}

	var cpu float64
	if dt := cur.uptime - base.uptime; dt > 0 {
		cpu = float64(cur.ticks-base.ticks) / clockTicks / dt * 100
	}

	elapsed := max(cur.uptime-started, 0)
	u := Usage{
		PID:       pid,
		PPID:      int(st.Ppid),
		CPU:       cpu,
		Memory:    uint64(st.Rss) * p.pageSize,
		CTime:     int64(cur.ticks * 1000 / clockTicks),
		Elapsed:   int64(elapsed * 1000),
		Timestamp: time.Now(),
	}
	log.Debug(log.CatStats, "Sampled pid", "pid", pid, "cpu", u.CPU, "memory", u.Memory)
	return u, nil
}

// Release drops the CPU history.
func (p *ProcPid) Release() {
	p.history.Flush()
}

//go:build unix

package stats

import (
	"github.com/go-faster/errors"
	"golang.org/x/sys/unix"
)

func getrusage() (ResourceUsage, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return ResourceUsage{}, errors.Wrap(err, "getrusage")
	}
	return ResourceUsage{
		UserCPUTime:            ru.Utime.Nano() / 1e3,
		SystemCPUTime:          ru.Stime.Nano() / 1e3,
		MaxRSS:                 int64(ru.Maxrss),
		MinorPageFaults:        int64(ru.Minflt),
		MajorPageFaults:        int64(ru.Majflt),
		FSRead:                 int64(ru.Inblock),
		FSWrite:                int64(ru.Oublock),
		VoluntaryCtxSwitches:   int64(ru.Nvcsw),
		InvoluntaryCtxSwitches: int64(ru.Nivcsw),
	}, nil
}

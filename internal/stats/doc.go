// Package stats produces diagnostics snapshots for a connected handle.
//
// A Snapshot combines three samplers:
//
//   - HostSampler: parallelism, per-core info, memory, load averages and
//     uptime, read from procfs with github.com/c9s/goprocinfo.
//   - ProcessSampler: metrics of the current process (memory limit, CPU
//     time, monotonic clock, memory usage, resource usage, uptime).
//   - PidSampler: resource usage of one worker process, looked up by pid.
//
// The Aggregator asks the PidSampler for every tracked worker. A worker whose
// process has exited (ErrProcessNotFound) is left out of the snapshot; any
// other sampler failure fails the whole snapshot.
package stats

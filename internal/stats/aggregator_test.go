package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockHost struct{ mock.Mock }

func (m *mockHost) SampleHost(ctx context.Context) (HostMetrics, error) {
	args := m.Called(ctx)
	return args.Get(0).(HostMetrics), args.Error(1)
}

type mockProcess struct{ mock.Mock }

func (m *mockProcess) SampleProcess(ctx context.Context) (ProcessMetrics, error) {
	args := m.Called(ctx)
	return args.Get(0).(ProcessMetrics), args.Error(1)
}

type mockPids struct {
	mock.Mock
	released int
}

func (m *mockPids) SamplePid(ctx context.Context, pid int) (Usage, error) {
	args := m.Called(ctx, pid)
	return args.Get(0).(Usage), args.Error(1)
}

func (m *mockPids) Release() { m.released++ }

func newMockedAggregator(t *testing.T) (*Aggregator, *mockHost, *mockProcess, *mockPids) {
	t.Helper()
	host, proc, pids := &mockHost{}, &mockProcess{}, &mockPids{}
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	a := NewAggregator(
		WithHostSampler(host),
		WithProcessSampler(proc),
		WithPidSampler(pids),
		WithClock(func() time.Time { return at }),
	)
	t.Cleanup(func() {
		host.AssertExpectations(t)
		proc.AssertExpectations(t)
		pids.AssertExpectations(t)
	})
	return a, host, proc, pids
}

func TestAggregator_NoWorkers(t *testing.T) {
	a, host, proc, pids := newMockedAggregator(t)
	host.On("SampleHost", mock.Anything).Return(HostMetrics{Parallelism: 4}, nil)
	proc.On("SampleProcess", mock.Anything).Return(ProcessMetrics{PID: 1}, nil)

	snap, err := a.Snapshot(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 4, snap.Host.Parallelism)
	require.Equal(t, 1, snap.Process.PID)
	require.Nil(t, snap.Workers)
	require.Equal(t, 2025, snap.SampledAt.Year())
	pids.AssertNotCalled(t, "SamplePid", mock.Anything, mock.Anything)
}

func TestAggregator_MergesWorkersByPID(t *testing.T) {
	a, host, proc, pids := newMockedAggregator(t)
	host.On("SampleHost", mock.Anything).Return(HostMetrics{}, nil)
	proc.On("SampleProcess", mock.Anything).Return(ProcessMetrics{}, nil)
	pids.On("SamplePid", mock.Anything, 10).Return(Usage{PID: 10, CPU: 1.5}, nil)
	pids.On("SamplePid", mock.Anything, 20).Return(Usage{PID: 20, CPU: 2.5}, nil)

	snap, err := a.Snapshot(context.Background(), []int{10, 20})
	require.NoError(t, err)
	require.Len(t, snap.Workers, 2)
	require.InDelta(t, 1.5, snap.Workers[10].CPU, 0.0001)
	require.InDelta(t, 2.5, snap.Workers[20].CPU, 0.0001)
}

func TestAggregator_OmitsExitedProcesses(t *testing.T) {
	a, host, proc, pids := newMockedAggregator(t)
	host.On("SampleHost", mock.Anything).Return(HostMetrics{}, nil)
	proc.On("SampleProcess", mock.Anything).Return(ProcessMetrics{}, nil)
	pids.On("SamplePid", mock.Anything, 10).Return(Usage{}, ErrProcessNotFound)
	pids.On("SamplePid", mock.Anything, 20).Return(Usage{PID: 20}, nil)

	snap, err := a.Snapshot(context.Background(), []int{10, 20})
	require.NoError(t, err)
	require.NotContains(t, snap.Workers, 10)
	require.Contains(t, snap.Workers, 20)
}

func TestAggregator_PidSamplerFailure(t *testing.T) {
	a, host, proc, pids := newMockedAggregator(t)
	boom := errors.New("permission denied")
	host.On("SampleHost", mock.Anything).Return(HostMetrics{}, nil)
	proc.On("SampleProcess", mock.Anything).Return(ProcessMetrics{}, nil)
	pids.On("SamplePid", mock.Anything, 10).Return(Usage{}, boom)

	snap, err := a.Snapshot(context.Background(), []int{10, 20})
	require.ErrorIs(t, err, boom)
	require.Nil(t, snap)
}

func TestAggregator_HostFailure(t *testing.T) {
	a, host, _, _ := newMockedAggregator(t)
	boom := errors.New("no procfs")
	host.On("SampleHost", mock.Anything).Return(HostMetrics{}, boom)

	_, err := a.Snapshot(context.Background(), nil)
	require.ErrorIs(t, err, boom)
}

func TestAggregator_Release(t *testing.T) {
	a, _, _, pids := newMockedAggregator(t)
	a.Release()
	require.Equal(t, 1, pids.released)
}

func TestAggregator_Defaults(t *testing.T) {
	a := NewAggregator()
	require.IsType(t, &ProcHost{}, a.host)
	require.IsType(t, &RuntimeProcess{}, a.proc)
	require.IsType(t, &ProcPid{}, a.pids)
}

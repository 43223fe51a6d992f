package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManual_TasksDoNotRunUntilDrained(t *testing.T) {
	s := NewManual()
	ran := false

	require.NoError(t, s.Defer(func() { ran = true }))
	require.False(t, ran, "task must not run synchronously")
	require.Equal(t, 1, s.Pending())

	n, err := s.Drain()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.True(t, ran)
	require.Equal(t, uint64(1), s.Executed())
}

func TestManual_FIFOOrder(t *testing.T) {
	s := NewManual()
	var order []int

	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, s.Defer(func() { order = append(order, i) }))
	}

	_, err := s.Drain()
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestManual_RunPendingIsOneTurn(t *testing.T) {
	s := NewManual()
	var order []string

	require.NoError(t, s.Defer(func() {
		order = append(order, "first")
		_ = s.Defer(func() { order = append(order, "nested") })
	}))
	require.NoError(t, s.Defer(func() { order = append(order, "second") }))

	n, err := s.RunPending()
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"first", "second"}, order)
	require.Equal(t, 1, s.Pending(), "nested task waits for the next turn")

	n, err = s.RunPending()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []string{"first", "second", "nested"}, order)
}

func TestManual_PanicDoesNotStopQueue(t *testing.T) {
	s := NewManual()
	ran := false

	require.NoError(t, s.Defer(func() { panic("boom") }))
	require.NoError(t, s.Defer(func() { ran = true }))

	n, err := s.Drain()
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.True(t, ran)
}

func TestManual_FlushDrains(t *testing.T) {
	s := NewManual()
	ran := false
	require.NoError(t, s.Defer(func() { ran = true }))

	require.NoError(t, s.Flush(context.Background()))
	require.True(t, ran)
}

func TestAuto_RunsInOrderOnLoop(t *testing.T) {
	s := New()
	defer s.Close()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, s.Defer(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 100)
	for i, v := range order {
		require.Equal(t, i, v)
	}
}

func TestAuto_ManualOperationsRejected(t *testing.T) {
	s := New()
	defer s.Close()

	_, err := s.RunPending()
	require.ErrorIs(t, err, ErrNotManual)
	_, err = s.Drain()
	require.ErrorIs(t, err, ErrNotManual)
}

func TestClose_RejectsNewTasks(t *testing.T) {
	s := New()
	s.Close()
	s.Close() // idempotent

	require.ErrorIs(t, s.Defer(func() {}), ErrClosed)
}

func TestClose_DiscardsQueuedTasks(t *testing.T) {
	s := NewManual()
	ran := false
	require.NoError(t, s.Defer(func() { ran = true }))

	s.Close()
	n, err := s.Drain()
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.False(t, ran)
}

func TestFlush_ContextCancelled(t *testing.T) {
	s := New()
	defer s.Close()

	block := make(chan struct{})
	require.NoError(t, s.Defer(func() { <-block }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)
	close(block)
}

func TestDefer_NilTask(t *testing.T) {
	s := NewManual()
	require.Error(t, s.Defer(nil))
}

func TestNewWithMode(t *testing.T) {
	s, err := NewWithMode(ModeManual)
	require.NoError(t, err)
	require.Equal(t, ModeManual, s.Mode())

	s, err = NewWithMode(ModeAuto)
	require.NoError(t, err)
	require.Equal(t, ModeAuto, s.Mode())
	s.Close()

	_, err = NewWithMode("bogus")
	require.Error(t, err)
}

func TestDefault_IsShared(t *testing.T) {
	require.Same(t, Default(), Default())
	require.Equal(t, ModeAuto, Default().Mode())
}

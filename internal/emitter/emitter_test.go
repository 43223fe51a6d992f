package emitter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEmitter_OnCalledForEveryEmit(t *testing.T) {
	e := New()
	var got []any

	e.On("open", func(payload any) { got = append(got, payload) })

	require.True(t, e.Emit("open", 1))
	require.True(t, e.Emit("open", 2))
	require.Equal(t, []any{1, 2}, got)
}

func TestEmitter_EmitWithoutListeners(t *testing.T) {
	var e Emitter
	require.False(t, e.Emit("close", nil))
}

func TestEmitter_OnceFiresOnce(t *testing.T) {
	e := New()
	calls := 0
	e.Once("connected", func(any) { calls++ })

	e.Emit("connected", nil)
	e.Emit("connected", nil)

	require.Equal(t, 1, calls)
	require.Equal(t, 0, e.ListenerCount("connected"))
}

func TestEmitter_OnceNotRepeatedOnReentrantEmit(t *testing.T) {
	e := New()
	calls := 0
	e.Once("close", func(any) {
		calls++
		e.Emit("close", nil)
	})

	e.Emit("close", nil)
	require.Equal(t, 1, calls)
}

func TestEmitter_RegistrationOrder(t *testing.T) {
	e := New()
	var order []string
	e.On("open", func(any) { order = append(order, "a") })
	e.Once("open", func(any) { order = append(order, "b") })
	e.On("open", func(any) { order = append(order, "c") })

	e.Emit("open", nil)
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestEmitter_Off(t *testing.T) {
	e := New()
	calls := 0
	sub := e.On("open", func(any) { calls++ })
	require.Equal(t, "open", sub.Event())

	require.True(t, e.Off(sub))
	require.False(t, e.Off(sub), "second Off should report already removed")

	e.Emit("open", nil)
	require.Equal(t, 0, calls)
}

func TestEmitter_OffOnlyRemovesTarget(t *testing.T) {
	e := New()
	var order []string
	first := e.On("open", func(any) { order = append(order, "first") })
	e.On("open", func(any) { order = append(order, "second") })

	e.Off(first)
	e.Emit("open", nil)

	require.Equal(t, []string{"second"}, order)
}

func TestEmitter_RemoveAll(t *testing.T) {
	e := New()
	e.On("open", func(any) {})
	e.On("close", func(any) {})

	e.RemoveAll("open")
	require.Equal(t, 0, e.ListenerCount("open"))
	require.Equal(t, 1, e.ListenerCount("close"))

	e.RemoveAll()
	require.Equal(t, 0, e.ListenerCount("close"))
}

func TestEmitter_PanickingListenerDoesNotStopOthers(t *testing.T) {
	e := New()
	called := false
	e.On("open", func(any) { panic("boom") })
	e.On("open", func(any) { called = true })

	require.NotPanics(t, func() { e.Emit("open", nil) })
	require.True(t, called)
}

func TestRecorder_RecordsInOrder(t *testing.T) {
	e := New()
	r := NewRecorder(e, "open", "close")

	e.Emit("open", "a")
	e.Emit("ignored", nil)
	e.Emit("close", nil)
	e.Emit("open", "b")

	require.Equal(t, []string{"open", "close", "open"}, r.Names())
	require.Equal(t, 2, r.Count("open"))
	require.Equal(t, "b", r.Records()[2].Payload)

	r.Reset()
	require.Empty(t, r.Records())
}

func TestRecorder_WaitFor(t *testing.T) {
	e := New()
	r := NewRecorder(e, "connected")

	go func() {
		time.Sleep(10 * time.Millisecond)
		e.Emit("connected", nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.WaitFor(ctx, "connected", 1))
}

func TestRecorder_WaitForTimeout(t *testing.T) {
	e := New()
	r := NewRecorder(e, "connected")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, r.WaitFor(ctx, "connected", 1), context.DeadlineExceeded)
}

func TestRecorder_Stop(t *testing.T) {
	e := New()
	r := NewRecorder(e, "open")
	r.Stop()

	e.Emit("open", nil)
	require.Empty(t, r.Names())
	require.Equal(t, 0, e.ListenerCount("open"))
}

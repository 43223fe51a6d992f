package connection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/remote-engine-mock/internal/emitter"
	"github.com/zjrosen/remote-engine-mock/internal/engine"
	"github.com/zjrosen/remote-engine-mock/internal/scheduler"
	"github.com/zjrosen/remote-engine-mock/internal/stats"
)

// handleModel is the reference the handle is checked against.
type handleModel struct {
	state   string // closed | connecting | connected | destroyed
	address string
	gen     uint64
	queue   []modelTask
	events  []string
}

type modelTask struct {
	gen   uint64
	event string
}

func (m *handleModel) open(addr string) error {
	if m.state != "closed" {
		return ErrInvalidState
	}
	if addr == "" {
		addr = m.address
	}
	if addr == "" {
		return ErrInvalidArgument
	}
	m.state = "connecting"
	m.address = addr
	m.gen++
	for _, ev := range []string{EventOpen, EventTransportOpen, EventConnected} {
		m.queue = append(m.queue, modelTask{gen: m.gen, event: ev})
	}
	return nil
}

func (m *handleModel) close() error {
	switch m.state {
	case "destroyed":
		return ErrInvalidState
	case "closed":
		return nil
	case "connected":
		m.events = append(m.events, EventEngine)
	}
	m.state = "closed"
	m.events = append(m.events, EventClose)
	return nil
}

func (m *handleModel) destroy() error {
	if err := m.close(); err != nil {
		return err
	}
	m.state = "destroyed"
	return nil
}

func (m *handleModel) drain() {
	for _, task := range m.queue {
		if m.state != "connecting" || task.gen != m.gen {
			continue
		}
		m.events = append(m.events, task.event)
		if task.event == EventConnected {
			m.state = "connected"
			m.events = append(m.events, EventEngine)
		}
	}
	m.queue = nil
}

func (m *handleModel) readyState() (ReadyState, bool) {
	switch m.state {
	case "connected":
		return Connected, true
	case "closed":
		return Closed, true
	case "connecting":
		return Open, true
	default:
		return 0, false
	}
}

func TestHandle_StateMachineProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sched := scheduler.NewManual()
		defer sched.Close()
		feed := engine.NewFeed()
		defer feed.Close()

		initial := rapid.SampledFrom([]string{"", "ws://a"}).Draw(rt, "initial")
		h, err := New(initial,
			WithScheduler(sched),
			WithFeed(feed),
			WithStats(
				stats.WithHostSampler(fakeHost{}),
				stats.WithProcessSampler(fakeProcess{}),
				stats.WithPidSampler(&fakePids{}),
			),
		)
		require.NoError(rt, err)
		defer func() { _ = h.Destroy() }()
		rec := emitter.NewRecorder(h, Events...)
		defer rec.Stop()

		m := &handleModel{state: "closed", events: []string{}}
		if initial != "" {
			require.NoError(rt, m.open(initial))
		}
		addrs := rapid.SampledFrom([]string{"", "ws://a", "ws://b"})

		rt.Repeat(map[string]func(*rapid.T){
			"open": func(rt *rapid.T) {
				addr := addrs.Draw(rt, "addr")
				want := m.open(addr)
				_, got := h.Open(addr)
				if want == nil {
					require.NoError(rt, got)
				} else {
					require.ErrorIs(rt, got, want)
				}
			},
			"close": func(rt *rapid.T) {
				want := m.close()
				got := h.Close()
				if want == nil {
					require.NoError(rt, got)
				} else {
					require.ErrorIs(rt, got, want)
				}
			},
			"destroy": func(rt *rapid.T) {
				if rapid.IntRange(0, 9).Draw(rt, "destroyRoll") != 0 {
					rt.Skip("destroy kept rare")
				}
				want := m.destroy()
				got := h.Destroy()
				if want == nil {
					require.NoError(rt, got)
				} else {
					require.ErrorIs(rt, got, want)
				}
			},
			"drain": func(rt *rapid.T) {
				m.drain()
				_, err := sched.Drain()
				require.NoError(rt, err)
			},
			"stats": func(rt *rapid.T) {
				_, err := h.GetStats(context.Background())
				if m.state == "connected" {
					require.NoError(rt, err)
				} else {
					require.ErrorIs(rt, err, ErrInvalidState)
				}
			},
			"": func(rt *rapid.T) {
				want, ok := m.readyState()
				got, err := h.ReadyState()
				if ok {
					require.NoError(rt, err)
					require.Equal(rt, want, got)
				} else {
					require.ErrorIs(rt, err, ErrInvalidState)
				}

				require.Equal(rt, m.state == "connected", h.Engine() != nil)
				require.Equal(rt, m.address, h.Address())
				require.Equal(rt, m.events, rec.Names())
			},
		})
	})
}

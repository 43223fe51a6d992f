package log

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLog_NoopBeforeInit(t *testing.T) {
	require.Nil(t, defaultLogger.Load())
	Info(CatConn, "dropped")
	require.Nil(t, Subscribe(context.Background()))
}

func TestLog_Format(t *testing.T) {
	var buf lockedBuffer
	cleanup := InitWriter(&buf)
	defer cleanup()

	Warn(CatStats, "sample failed", "pid", 42, "dangling")

	line := buf.String()
	require.Contains(t, line, "[WARN] [stats] sample failed pid=42 dangling=<missing>")
	require.True(t, strings.HasSuffix(line, "\n"))
}

func TestLog_MinLevelAndDisable(t *testing.T) {
	var buf lockedBuffer
	cleanup := InitWriter(&buf)
	defer cleanup()

	SetMinLevel(LevelWarn)
	Debug(CatConn, "hidden")
	Error(CatConn, "shown")
	SetEnabled(false)
	Error(CatConn, "muted")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.NotContains(t, out, "muted")
}

func TestLog_ErrorErr(t *testing.T) {
	var buf lockedBuffer
	cleanup := InitWriter(&buf)
	defer cleanup()

	ErrorErr(CatConfig, "write", os.ErrPermission, "path", "/x")
	ErrorErr(CatConfig, "nil error", nil)

	out := buf.String()
	require.Contains(t, out, "path=/x error=permission denied")
	require.Contains(t, out, "error=<nil>")
}

func TestLog_Subscribe(t *testing.T) {
	cleanup := InitWriter(&lockedBuffer{})
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := Subscribe(ctx)
	require.NotNil(t, ch)

	Info(CatCLI, "hello")

	select {
	case ev := <-ch:
		require.Contains(t, ev.Payload, "[INFO] [cli] hello")
	case <-time.After(time.Second):
		t.Fatal("no log event")
	}
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	cleanup, err := Init(path)
	require.NoError(t, err)

	_, err = Init(path)
	require.Error(t, err, "second Init must fail")

	Info(CatConn, "to file")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "to file")
	require.Nil(t, defaultLogger.Load())
}

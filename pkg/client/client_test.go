package client

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/padbatt/pkg/events"
	"github.com/charlie0129/padbatt/pkg/monitor"
)

func collect(t *testing.T, stream string) []events.Event {
	t.Helper()
	out := make(chan events.Event, 16)
	err := parseSSE(context.Background(), strings.NewReader(stream), out)
	assert.ErrorIs(t, err, io.EOF)
	close(out)

	var ret []events.Event
	for ev := range out {
		ret = append(ret, ev)
	}
	return ret
}

func TestParseSSE(t *testing.T) {
	stream := strings.Join([]string{
		"event:snapshot.updated",
		`data:{"mode":"default"}`,
		"",
		": comment",
		"event: controller.attached",
		`data: {"title":"padbatt",`,
		`data: "body":"Controller connected"}`,
		"",
		"event:ping",
		"data:{}",
		"",
		"event:controller.detached",
		`data:{"ts":1}`,
	}, "\n")

	got := collect(t, stream)
	require.Len(t, got, 3)

	assert.Equal(t, events.SnapshotUpdated, got[0].Name)
	assert.JSONEq(t, `{"mode":"default"}`, string(got[0].Data))

	assert.Equal(t, events.ControllerAttached, got[1].Name)
	payload, err := events.DecodeAs[events.ControllerEvent](got[1])
	require.NoError(t, err)
	assert.Equal(t, "Controller connected", payload.Body)

	assert.Equal(t, events.ControllerDetached, got[2].Name)
}

func TestParseSSEStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan events.Event)
	err := parseSSE(ctx, strings.NewReader("event:a\ndata:1\n\n"), out)
	assert.ErrorIs(t, err, context.Canceled)
}

func serveUnix(t *testing.T, h http.Handler) *Client {
	t.Helper()
	dir, err := os.MkdirTemp("", "padbatt")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	sock := filepath.Join(dir, "d.sock")
	l, err := net.Listen("unix", sock)
	require.NoError(t, err)

	srv := &http.Server{Handler: h}
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	return NewClient(sock)
}

func TestDaemonNotRunning(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	_, err := c.GetVersion()
	assert.True(t, errors.Is(err, ErrDaemonNotRunning), "got %v", err)
}

func TestAPIs(t *testing.T) {
	var gotBody string
	mux := http.NewServeMux()
	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`"v1.2.3"`))
	})
	mux.HandleFunc("/multi-controller-policy", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"mode":"withBattery","percentage":"25%"}`))
	})
	c := serveUnix(t, mux)

	v, err := c.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", v)

	_, err = c.SetMultiControllerPolicy(monitor.PolicyLatest)
	require.NoError(t, err)
	assert.Equal(t, `"latest"`, gotBody)

	snap, err := c.GetSnapshot()
	require.NoError(t, err)
	assert.Equal(t, "25%", snap.Percentage)

	_, err = c.GetStatus()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscribeEvents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("event:controller.attached\ndata:{\"body\":\"Controller connected\"}\n\n"))
	})
	c := serveUnix(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	ch := c.SubscribeEvents(ctx)

	select {
	case ev := <-ch:
		assert.Equal(t, events.ControllerAttached, ev.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	for range ch {
		// Drain until closed.
	}
}

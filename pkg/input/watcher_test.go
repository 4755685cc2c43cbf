package input

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/padbatt/pkg/controller"
)

type pad string

func (p pad) ID() string       { return string(p) }
func (p pad) Name() string     { return "pad " + string(p) }
func (p pad) IsWireless() bool { return false }
func (p pad) BatteryReport() (controller.RawBatteryReport, error) {
	return controller.RawBatteryReport{Status: "NotPresent"}, nil
}

type scriptedSource struct {
	mu    sync.Mutex
	scans [][]controller.Handle
	errs  []error
	i     int
}

func (s *scriptedSource) Name() string { return "scripted" }
func (s *scriptedSource) Close() error { return nil }

func (s *scriptedSource) Scan(context.Context) ([]controller.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.i
	if i >= len(s.scans) {
		i = len(s.scans) - 1
	} else {
		s.i++
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.scans[i], err
}

func handles(ids ...string) []controller.Handle {
	ret := make([]controller.Handle, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, pad(id))
	}
	return ret
}

func kindsAndIDs(evs []Event) []string {
	ret := make([]string, 0, len(evs))
	for _, ev := range evs {
		ret = append(ret, ev.Kind.String()+":"+ev.Handle.ID())
	}
	return ret
}

func TestWatcherPollDiffs(t *testing.T) {
	src := &scriptedSource{scans: [][]controller.Handle{
		handles(),
		handles("a"),
		handles("a", "b"),
		handles("b"),
		handles("c"),
		handles(),
	}}
	w := NewWatcher(src, time.Second)
	ctx := context.Background()

	want := [][]string{
		{},
		{"attached:a"},
		{"attached:b"},
		{"detached:a"},
		{"detached:b", "attached:c"},
		{"detached:c"},
	}
	for i, exp := range want {
		evs, err := w.Poll(ctx)
		require.NoError(t, err)
		assert.Equal(t, exp, kindsAndIDs(evs), "scan %d", i)
	}
	assert.Empty(t, w.Attached())
}

func TestWatcherPollKeepsAttachOrder(t *testing.T) {
	src := &scriptedSource{scans: [][]controller.Handle{
		handles("z"),
		handles("a", "z", "a"),
	}}
	w := NewWatcher(src, time.Second)

	_, err := w.Poll(context.Background())
	require.NoError(t, err)
	evs, err := w.Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"attached:a"}, kindsAndIDs(evs), "duplicates in one scan are ignored")
	assert.Equal(t, handles("z", "a"), w.Attached())
}

func TestWatcherPollErrorKeepsState(t *testing.T) {
	boom := errors.New("boom")
	src := &scriptedSource{
		scans: [][]controller.Handle{handles("a"), nil, handles("a")},
		errs:  []error{nil, boom, nil},
	}
	w := NewWatcher(src, time.Second)

	_, err := w.Poll(context.Background())
	require.NoError(t, err)

	_, err = w.Poll(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, handles("a"), w.Attached())

	evs, err := w.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, evs)
}

func TestWatcherRun(t *testing.T) {
	src := &scriptedSource{scans: [][]controller.Handle{
		handles("a"),
		handles(),
	}}
	w := NewWatcher(src, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	var got []string
	for ev := range w.Events() {
		got = append(got, ev.Kind.String()+":"+ev.Handle.ID())
		if len(got) == 2 {
			cancel()
		}
	}
	assert.Equal(t, []string{"attached:a", "detached:a"}, got)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, ControllerInfo{ID: "a", Name: "pad a"}, Describe(pad("a")))
}

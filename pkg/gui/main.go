package gui

import (
	"context"
	"sync"
	"time"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/padbatt/pkg/client"
	"github.com/charlie0129/padbatt/pkg/controller"
	"github.com/charlie0129/padbatt/pkg/events"
	"github.com/charlie0129/padbatt/pkg/version"
)

// PollInterval is how often the tray refreshes without events.
const PollInterval = 2 * time.Second

type tray struct {
	api    *client.Client
	cancel context.CancelFunc

	mu    sync.Mutex
	items [itemCount]*systray.MenuItem
	last  view
}

// Run shows the tray until the user quits.
func Run(unixSocketPath string) {
	logrus.WithFields(logrus.Fields{
		"version":   version.Version,
		"gitCommit": version.GitCommit,
	}).Info("padbatt gui")

	ctx, cancel := context.WithCancel(context.Background())
	t := &tray{api: client.NewClient(unixSocketPath), cancel: cancel}
	systray.Run(func() { t.onReady(ctx) }, t.onExit)
}

func (t *tray) onReady(ctx context.Context) {
	systray.SetTitle(titleLoading)
	systray.SetTooltip("padbatt")

	for i := range t.items {
		t.items[i] = systray.AddMenuItem("Loading...", "")
		t.items[i].Disable()
	}

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit padbatt")

	go func() {
		<-mQuit.ClickedCh
		systray.Quit()
	}()

	go t.pollLoop(ctx)
	go t.eventLoop(ctx)
}

func (t *tray) onExit() {
	t.cancel()
	logrus.Info("padbatt gui exiting")
}

func (t *tray) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	t.refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.refresh()
		}
	}
}

// eventLoop refreshes as soon as the daemon reports a change.
func (t *tray) eventLoop(ctx context.Context) {
	for ev := range t.api.SubscribeEvents(ctx) {
		logrus.WithFields(logrus.Fields{
			"event": ev.Name,
			"data":  string(ev.Data),
		}).Debug("new event")

		switch ev.Name {
		case events.SnapshotUpdated:
			s, err := events.DecodeAs[controller.Snapshot](ev)
			if err != nil {
				logrus.WithError(err).Error("failed to decode snapshot event")
				continue
			}
			t.show(viewOf(s), tooltipOf(s))
		case events.ControllerAttached, events.ControllerDetached:
			t.refresh()
		}
	}
}

func (t *tray) refresh() {
	s, err := t.api.GetSnapshot()
	if err != nil {
		logrus.WithError(err).Debug("cannot reach daemon")
		t.show(offlineView(), "padbatt")
		return
	}
	t.show(viewOf(*s), tooltipOf(*s))
}

func (t *tray) show(v view, tooltip string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if v == t.last {
		return
	}
	t.last = v

	systray.SetTitle(v.Title)
	systray.SetTooltip(tooltip)
	for i, item := range t.items {
		item.SetTitle(v.Items[i])
	}
}

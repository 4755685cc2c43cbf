package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// settleDelay lets editors finish writing before we reload.
const settleDelay = 100 * time.Millisecond

// Watch calls onChange whenever the file at path is written, created or
// replaced, until ctx is done. It watches the parent directory so that
// atomic saves (write to temp, then rename) are seen too.
func Watch(ctx context.Context, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create file watcher")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return pkgerrors.Wrapf(err, "failed to resolve %s", path)
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return pkgerrors.Wrapf(err, "failed to watch %s", filepath.Dir(abs))
	}

	logrus.WithField("path", abs).Debug("watching config file")

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				// Coalesce bursts of events into one reload.
				if timer == nil {
					timer = time.NewTimer(settleDelay)
				} else {
					timer.Reset(settleDelay)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				logrus.WithField("path", abs).Info("config file changed")
				onChange()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.WithError(err).Warn("config watcher error")
			}
		}
	}()

	return nil
}

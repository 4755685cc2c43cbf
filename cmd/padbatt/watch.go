package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/padbatt/pkg/controller"
	"github.com/charlie0129/padbatt/pkg/events"
)

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   "Stream controller changes until interrupted",
		GroupID: gBasic,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := apiClient.GetSnapshot()
			if err != nil {
				return err
			}
			cmd.Printf("%s %s\n", time.Now().Format(time.Kitchen), oneLine(*s))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for ev := range apiClient.SubscribeEvents(ctx) {
				switch ev.Name {
				case events.SnapshotUpdated:
					snap, err := events.DecodeAs[controller.Snapshot](ev)
					if err != nil {
						logrus.WithError(err).Error("failed to decode snapshot event")
						continue
					}
					cmd.Printf("%s %s\n", time.Now().Format(time.Kitchen), oneLine(snap))
				case events.ControllerAttached, events.ControllerDetached:
					payload, err := events.DecodeAs[events.ControllerEvent](ev)
					if err != nil {
						logrus.WithError(err).Errorf("failed to decode %s event", ev.Name)
						continue
					}
					cmd.Printf("%s %s\n", time.Now().Format(time.Kitchen), bold("%s", payload.Body))
				}
			}
			return nil
		},
	}
}

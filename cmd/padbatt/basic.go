package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/padbatt/pkg/config"
	"github.com/charlie0129/padbatt/pkg/monitor"
	"github.com/charlie0129/padbatt/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewFrequencyCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "frequency [milliseconds]",
		Short:   "Set how often the active controller is polled",
		GroupID: gBasic,
		Long: fmt.Sprintf(`Set how often the active controller is polled.

This is an interval in milliseconds from %d to %d. The new interval takes effect at the next tick and is saved to the config file.`,
			config.MinUpdateFrequencyMs, config.MaxUpdateFrequencyMs),
		RunE: func(_ *cobra.Command, args []string) error {
			ms, err := parseIntArg(args, "frequency")
			if err != nil {
				return err
			}
			if err := config.ValidateUpdateFrequencyMs(ms); err != nil {
				return err
			}

			ret, err := apiClient.SetUpdateFrequency(ms)
			if err != nil {
				return fmt.Errorf("failed to set update frequency: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set update frequency to %dms", ms)

			return nil
		},
	}
}

func NewNotificationsCommand() *cobra.Command {
	return newEnableDisableCommand(
		"notifications",
		"desktop notifications",
		`Enable or disable desktop notifications when a controller connects or disconnects.

Events are still logged and streamed to the tray when notifications are disabled.`,
		func() (string, error) { return apiClient.SetNotifications(true) },
		func() (string, error) { return apiClient.SetNotifications(false) },
	)
}

func NewPolicyCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "policy [ignore|latest]",
		Short:     "Set what happens when several controllers are connected",
		GroupID:   gBasic,
		ValidArgs: []string{string(monitor.PolicyIgnore), string(monitor.PolicyLatest)},
		Args:      cobra.ExactArgs(1),
		Long: `Set what happens when several controllers are connected.

  ignore: keep showing the last state until only one controller is left.
  latest: always show the most recently connected controller.`,
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := monitor.ParsePolicy(args[0])
			if err != nil {
				return err
			}

			ret, err := apiClient.SetMultiControllerPolicy(p)
			if err != nil {
				return fmt.Errorf("failed to set multi-controller policy: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set multi-controller policy to %s", p)

			return nil
		},
	}
}

func NewControllersCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "controllers",
		Short:   "List connected controllers",
		GroupID: gBasic,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := apiClient.GetStatus()
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			list, err := apiClient.GetControllers()
			if err != nil {
				return fmt.Errorf("failed to get controllers: %w", err)
			}

			if len(list) == 0 {
				cmd.Println("No controller connected.")
				return nil
			}

			for _, c := range list {
				marker := " "
				if c.ID == status.ActiveID {
					marker = "*"
				}
				link := "cable"
				if c.IsWireless {
					link = "wireless"
				}
				cmd.Printf("%s %s  %s (%s)\n", marker, bold("%s", c.ID), c.Name, link)
			}
			return nil
		},
	}
}

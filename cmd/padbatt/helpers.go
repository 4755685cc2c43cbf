package main

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/padbatt/pkg/version"
)

func parseIntArg(args []string, valueName string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("invalid number of arguments")
	}

	value, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", valueName, err)
	}

	return value, nil
}

func newEnableDisableCommand(
	use, short, long string,
	enableFunc func() (string, error),
	disableFunc func() (string, error),
) *cobra.Command {
	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Long:    long,
		GroupID: gBasic,
	}

	run := func(verb string, fn func() (string, error)) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, _ []string) error {
			ret, err := fn()
			if err != nil {
				return fmt.Errorf("failed to %s %s: %v", verb, use, err)
			}
			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}
			logrus.Infof("successfully %sd %s", verb, use)
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Enable " + short,
			RunE:  run("enable", enableFunc),
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Disable " + short,
			RunE:  run("disable", disableFunc),
		},
	)

	return cmd
}

func getVersion() (clientVersion string, daemonVersion string, err error) {
	daemonVersion, err = apiClient.GetVersion()
	if err != nil {
		return version.Version, "", err
	}
	return version.Version, daemonVersion, nil
}

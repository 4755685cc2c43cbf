package main

import (
	"errors"
	"fmt"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/padbatt/pkg/client"
	"github.com/charlie0129/padbatt/pkg/config"
	"github.com/charlie0129/padbatt/pkg/gui"
)

var (
	logLevel       = "info"
	unixSocketPath = "/var/run/padbatt.sock"
	configPath     = config.DefaultPath
)

var apiClient *client.Client

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: padbatt daemon is not running")
		fmt.Fprintln(os.Stderr, "Start it with 'padbatt daemon', or check --daemon-socket.")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or start the daemon with '--always-allow-non-root-access' to grant permissions to your user")
	}
}

func main() {
	// padbatt does not need to use much.
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(2)
	}
	// The tray event loop must own the main thread on some platforms.
	runtime.LockOSThread()

	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "padbatt",
		Short: "padbatt shows the battery of your game controller",
		Long: `padbatt shows the connection and battery state of your game controller.

A daemon watches for controllers and polls the active one. The CLI and the
tray talk to the daemon over a unix socket.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			apiClient = client.NewClient(unixSocketPath)

			if cmd.Name() == "daemon" {
				return nil
			}

			if clientVersion, daemonVersion, err := getVersion(); err == nil {
				if daemonVersion != clientVersion {
					logrus.WithFields(logrus.Fields{
						"clientVersion": clientVersion,
						"daemonVersion": daemonVersion,
					}).Warn("Version mismatch between client and daemon. padbatt may not work as expected.")
				}
			} else if errors.Is(err, client.ErrNotFound) {
				logrus.Error("padbatt daemon is too old to report its version.")
			}

			return nil
		},
	}

	if os.Getenv("PADBATT_RUN_GUI") != "" || path.Base(os.Args[0]) == "padbatt-gui" {
		cmd.Run = func(_ *cobra.Command, _ []string) {
			gui.Run(unixSocketPath)
		}
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path (.json, .yaml or .yml)")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "padbatt daemon unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewStatusCommand(),
		NewWatchCommand(),
		NewControllersCommand(),
		NewFrequencyCommand(),
		NewNotificationsCommand(),
		NewPolicyCommand(),
		gui.NewGUICommand(func() string { return unixSocketPath }, gBasic),
	)

	return cmd
}

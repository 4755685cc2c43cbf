package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/charlie0129/padbatt/pkg/config"
	"github.com/charlie0129/padbatt/pkg/monitor"
)

type statusData struct {
	status *monitor.Status
	config *config.RawFileConfig
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	status, err := apiClient.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return &statusData{status: status, config: conf}, nil
}

// formatMonitorStatus renders the monitor section of status.
func formatMonitorStatus(st *monitor.Status, now time.Time) string {
	var b strings.Builder

	b.WriteString(bold("Monitor:") + "\n")
	fmt.Fprintf(&b, "  Connected controllers: %s\n", bold("%d", len(st.Attached)))
	if len(st.Attached) > 1 && st.Policy == monitor.PolicyIgnore {
		b.WriteString("    Several controllers are connected. The display is frozen until only one is left.\n")
	}
	if !st.LastTick.IsZero() {
		fmt.Fprintf(&b, "  Last tick: %s\n", bold("%s ago", now.Sub(st.LastTick).Round(time.Second)))
	}
	if st.MissedTicks {
		fmt.Fprintf(&b, "  Ticks missed: %s (the daemon is falling behind)\n", color.New(color.Bold, color.FgYellow).Sprint("yes"))
	}
	if st.LastError != "" {
		fmt.Fprintf(&b, "  Last error: %s\n", st.LastError)
	}
	return b.String()
}

type statusJSON struct {
	Status        *monitor.Status       `json:"status"`
	Configuration *config.RawFileConfig `json:"configuration"`
}

func NewStatusCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current controller and battery status",
		Long:    `Get the active controller, its battery, and the daemon configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			if asJSON {
				b, err := json.MarshalIndent(statusJSON{Status: data.status, Configuration: data.config}, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal status: %w", err)
				}
				cmd.Println(string(b))
				return nil
			}

			terminalRenderer{w: cmd.OutOrStdout()}.Render(data.status.Snapshot)
			cmd.Println()

			cmd.Print(formatMonitorStatus(data.status, time.Now()))
			cmd.Println()

			conf := config.NewFileFromConfig(data.config, "")
			cmd.Println(bold("Configuration:"))
			cmd.Printf("  Update frequency: %s\n", bold("%dms", conf.UpdateFrequencyMs()))
			cmd.Printf("  Scan interval: %s\n", bold("%dms", conf.ScanIntervalMs()))
			cmd.Printf("  Backend: %s\n", bold("%s", conf.Backend()))
			cmd.Printf("  Multi-controller policy: %s\n", bold("%s", conf.MultiControllerPolicy()))
			cmd.Printf("  Desktop notifications: %s\n", bool2Text(conf.Notifications()))
			cmd.Printf("  Allow non-root users to access the daemon: %s\n", bool2Text(conf.AllowNonRootAccess()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print status as JSON")

	return cmd
}

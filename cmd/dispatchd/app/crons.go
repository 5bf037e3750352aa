package app

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/gamemesh/internal/cron"
)

var cronsCmd = &cobra.Command{
	Use:   "crons",
	Short: "Inspect cron configuration",
}

var cronsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the cron entries configured for this server type",
	RunE:  runCronsList,
}

func init() {
	cronsCmd.AddCommand(cronsListCmd)
}

func runCronsList(_ *cobra.Command, _ []string) error {
	cfg, err := loadRuntimeConfig(viper.GetString("config"))
	if err != nil {
		return fmt.Errorf("loading server config: %w", err)
	}

	entries, err := cron.LoadConfig(cfg.CronBasePath, cfg.Env, cfg.ServerType)
	if err != nil {
		return fmt.Errorf("loading cron config: %w", err)
	}

	return renderCronsTable(entries)
}

func renderCronsTable(entries []cron.Entry) error {
	if len(entries) == 0 {
		fmt.Println("No cron entries configured for this server type.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Options(
		tablewriter.WithHeader([]string{"ID", "Time", "Action", "Server ID"}),
		tablewriter.WithRendition(
			tw.Rendition{
				Borders: tw.Border{
					Left:   tw.State(1),
					Top:    tw.State(1),
					Right:  tw.State(1),
					Bottom: tw.State(1),
				},
			},
		),
		tablewriter.WithAlignment(tw.MakeAlign(4, tw.AlignLeft)),
	)

	for _, e := range entries {
		serverID := e.ServerID
		if !e.HasServerID {
			serverID = "(any)"
		}
		if err := table.Append([]string{e.ID, e.Time, e.Action, serverID}); err != nil {
			return fmt.Errorf("appending row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"buzzing/internal/config"
	"buzzing/internal/store"
)

var logsLimit int

var logsCmd = &cobra.Command{
	Use:   "logs <source>",
	Short: "Show recent fetch runs for a source",
	Args:  cobra.ExactArgs(1),
	RunE:  logsAction,
}

func init() {
	logsCmd.Flags().IntVar(&logsLimit, "limit", 10, "max runs to show")
	rootCmd.AddCommand(logsCmd)
}

func logsAction(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	logs, err := db.RecentFetchLogs(cmd.Context(), args[0], logsLimit)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		fmt.Printf("No fetch runs recorded for %q.\n", args[0])
		return nil
	}

	for _, entry := range logs {
		line := fmt.Sprintf("%s  %-7s  %3d items  %s",
			entry.CreatedAt.Format(time.RFC3339), entry.Status, entry.ItemsCount,
			entry.Duration.Round(time.Millisecond))
		if entry.ErrorMsg != "" {
			line += "  " + entry.ErrorMsg
		}
		fmt.Println(line)
	}
	return nil
}

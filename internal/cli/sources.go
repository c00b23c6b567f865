package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"buzzing/internal/config"
	"buzzing/internal/store"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List known sources and their last fetch",
	RunE:  sourcesAction,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func sourcesAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	sources, err := db.ListSources(cmd.Context())
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Println("No sources yet. Run `buzzing fetch` first.")
		return nil
	}

	fmt.Printf("%-12s %-16s %9s %9s  %s\n", "NAME", "DISPLAY", "MIN SCORE", "MAX POSTS", "LAST FETCH")
	for _, src := range sources {
		last := "never"
		logs, err := db.RecentFetchLogs(cmd.Context(), src.Name, 1)
		if err != nil {
			return err
		}
		if len(logs) > 0 {
			entry := logs[0]
			last = fmt.Sprintf("%s %s (%d items)",
				entry.CreatedAt.Format(time.RFC3339), entry.Status, entry.ItemsCount)
			if entry.Status == store.FetchStatusFailed {
				last = fmt.Sprintf("%s failed: %s", entry.CreatedAt.Format(time.RFC3339), entry.ErrorMsg)
			}
		}
		fmt.Printf("%-12s %-16s %9d %9d  %s\n", src.Name, src.DisplayName, src.MinScore, src.MaxPosts, last)
	}
	return nil
}

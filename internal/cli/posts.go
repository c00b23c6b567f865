package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"buzzing/internal/config"
	"buzzing/internal/render"
	"buzzing/internal/store"
)

var (
	postsLimit  int
	postsOffset int
	postsLocale string
	postsFormat string
	postsColor  bool
)

var postsCmd = &cobra.Command{
	Use:   "posts <source>",
	Short: "List stored posts for a source, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  postsAction,
}

func init() {
	postsCmd.Flags().IntVar(&postsLimit, "limit", 20, "max posts to show")
	postsCmd.Flags().IntVar(&postsOffset, "offset", 0, "posts to skip")
	postsCmd.Flags().StringVar(&postsLocale, "locale", "en", "locale for titles (en, zh, ja)")
	postsCmd.Flags().StringVar(&postsFormat, "format", "terminal", "output format (terminal, markdown, json)")
	postsCmd.Flags().BoolVar(&postsColor, "color", true, "colorize terminal output")
	rootCmd.AddCommand(postsCmd)
}

func postsAction(cmd *cobra.Command, args []string) error {
	formatter, err := render.New(postsFormat, postsColor)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	src, err := db.SourceByName(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	posts, err := db.ListPostsBySource(cmd.Context(), args[0], postsLimit, postsOffset)
	if err != nil {
		return err
	}

	return formatter.Format(os.Stdout, render.Input{
		Source:      src,
		Posts:       posts,
		Locale:      postsLocale,
		GeneratedAt: time.Now(),
	})
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"buzzing/internal/config"
	"buzzing/internal/pipeline"
	"buzzing/internal/store"
)

var sweepLimit int

var translatePendingCmd = &cobra.Command{
	Use:   "translate-pending",
	Short: "Translate posts that missed inline translation",
	RunE:  translatePendingAction,
}

func init() {
	translatePendingCmd.Flags().IntVar(&sweepLimit, "limit", 0, "max posts to translate (default from config)")
	rootCmd.AddCommand(translatePendingCmd)
}

func translatePendingAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	engine, err := buildEngine(cfg, db)
	if err != nil {
		return err
	}
	if engine == nil {
		return fmt.Errorf("translation is disabled or unconfigured")
	}

	limit := sweepLimit
	if limit <= 0 {
		limit = cfg.Translate.SweepLimit
	}

	done, err := pipeline.New(db, engine, logger).TranslatePending(cmd.Context(), limit)
	if err != nil {
		return err
	}
	fmt.Printf("Translated %d posts.\n", done)
	return nil
}

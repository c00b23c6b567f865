package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"buzzing/internal/config"
	"buzzing/internal/pipeline"
	"buzzing/internal/source"
	"buzzing/internal/store"
	"buzzing/internal/translate"
)

var fetchNoTranslate bool

var fetchCmd = &cobra.Command{
	Use:   "fetch [source...]",
	Short: "Fetch posts from configured sources",
	Long: "Fetch runs the full cycle for each named source: pull candidates, insert " +
		"new posts, apply score updates, translate, and trim each source to its " +
		"retention cap. With no arguments every enabled source runs concurrently.",
	RunE: fetchAction,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchNoTranslate, "no-translate", false, "skip inline translation")
	rootCmd.AddCommand(fetchCmd)
}

func fetchAction(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	names := args
	if len(names) == 0 {
		names = cfg.Sources.Enabled
	}

	drivers, err := buildDrivers(cfg, names)
	if err != nil {
		return err
	}

	engine, err := buildEngine(cfg, db)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Fetch.Timeout.Duration)
	defer cancel()

	p := pipeline.New(db, engine, logger)
	results := p.RunAll(ctx, drivers)

	var newPosts, failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Printf("%-12s FAILED  %v\n", res.Source, res.Err)
			continue
		}
		newPosts += res.NewPosts
		fmt.Printf("%-12s ok      %3d seen  %3d new  %3d updated  %3d deleted  %s\n",
			res.Source, res.Count, res.NewPosts, res.Updated, res.Deleted,
			res.Duration.Round(time.Millisecond))
	}
	fmt.Printf("\nFetched %d/%d sources, %d new posts.\n", len(results)-failed, len(results), newPosts)

	if failed == len(results) && len(results) > 0 {
		return fmt.Errorf("all %d sources failed", failed)
	}
	return nil
}

func buildDrivers(cfg *config.Config, names []string) ([]source.Driver, error) {
	client := source.NewClient()

	drivers := make([]source.Driver, 0, len(names))
	for _, name := range names {
		drv, err := source.New(client, cfg.SourceConfig(name))
		if err != nil {
			return nil, fmt.Errorf("create source %s: %w", name, err)
		}
		drivers = append(drivers, drv)
	}
	return drivers, nil
}

// buildEngine wires the translation engine, or returns nil when
// translation is off or unconfigured; posts then queue for the sweep.
func buildEngine(cfg *config.Config, db *store.Store) (*translate.Engine, error) {
	if fetchNoTranslate || cfg.Translate.Disabled {
		return nil, nil
	}
	if cfg.Translate.SecretID == "" || cfg.Translate.SecretKey == "" {
		logger.Warn("translation credentials not set, posts will stay untranslated",
			"secret_id_env", cfg.Translate.SecretIDEnv)
		return nil, nil
	}

	provider, err := translate.NewTencent(cfg.Translate.SecretID, cfg.Translate.SecretKey, cfg.Translate.Region)
	if err != nil {
		return nil, fmt.Errorf("create translator: %w", err)
	}
	return translate.NewEngine(provider, db, logger), nil
}

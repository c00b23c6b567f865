package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"buzzing/internal/config"
)

const defaultConfigYAML = `# buzzing configuration

storage:
  path: .buzzing/buzzing.db

sources:
  # Sources a full run covers, in run order. Omit to use the default set.
  # enabled: [hn, showhn, askhn, lobsters, ph, devto, watcha, guardian, nature, skynews, arstechnica]
  overrides:
    hn:
      limit: 50
      min_score: 100
    guardian:
      api_key_env: GUARDIAN_API_KEY
    ph:
      api_key_env: PRODUCTHUNT_API_KEY
    # reddit:
    #   subreddits: [technology, programming]

translate:
  provider: tencent
  secret_id_env: TENCENT_SECRET_ID
  secret_key_env: TENCENT_SECRET_KEY
  region: ap-guangzhou

fetch:
  timeout: 5m
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter config.yaml in the config directory",
	RunE:  initAction,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	path := filepath.Join(configDir, config.DefaultConfigFile)
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config %s already exists.\n", path)
		return nil
	}

	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("Initialized %s.\n", path)
	return nil
}

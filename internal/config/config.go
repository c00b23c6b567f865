package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"buzzing/internal/source"
)

const (
	DefaultConfigFile   = "config.yaml"
	DefaultStoragePath  = ".buzzing/buzzing.db"
	DefaultFetchTimeout = 5 * time.Minute
	DefaultSweepLimit   = 20

	DefaultTranslateProvider = "tencent"
	DefaultTencentRegion     = "ap-guangzhou"
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Sources   SourcesConfig   `yaml:"sources"`
	Translate TranslateConfig `yaml:"translate"`
	Fetch     FetchConfig     `yaml:"fetch"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type SourcesConfig struct {
	// Enabled lists the sources a full run covers, in run order.
	Enabled []string `yaml:"enabled"`
	// Overrides tunes individual sources past their defaults.
	Overrides map[string]SourceOverride `yaml:"overrides"`
}

type SourceOverride struct {
	Variant    string   `yaml:"variant"`
	Limit      int      `yaml:"limit"`
	MinScore   int      `yaml:"min_score"`
	APIKeyEnv  string   `yaml:"api_key_env"`
	Subreddits []string `yaml:"subreddits"`

	// Resolved from the env var at load time.
	APIKey string `yaml:"-"`
}

type TranslateConfig struct {
	Disabled     bool   `yaml:"disabled"`
	Provider     string `yaml:"provider"`
	SecretIDEnv  string `yaml:"secret_id_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
	Region       string `yaml:"region"`
	SweepLimit   int    `yaml:"sweep_limit"`

	// Resolved from env vars at load time.
	SecretID  string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

type FetchConfig struct {
	Timeout Duration `yaml:"timeout"`
}

// defaultOverrides is the full-run tuning profile. Explicit overrides
// win field by field.
var defaultOverrides = map[string]SourceOverride{
	"hn":          {Limit: 50, MinScore: 100},
	"showhn":      {Limit: 30, MinScore: 10},
	"askhn":       {Limit: 30, MinScore: 50},
	"lobsters":    {Limit: 50, MinScore: 5},
	"ph":          {MinScore: 50, APIKeyEnv: "PRODUCTHUNT_API_KEY"},
	"devto":       {Limit: 30, MinScore: 20},
	"watcha":      {Limit: 30},
	"guardian":    {Limit: 20, APIKeyEnv: "GUARDIAN_API_KEY"},
	"nature":      {Limit: 20},
	"skynews":     {Limit: 20},
	"arstechnica": {Limit: 20},
}

// Load reads config.yaml from dir, applies defaults, resolves env vars,
// and validates. A missing file yields the pure default config.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	var cfg Config
	data, err := os.ReadFile(filepath.Join(dir, DefaultConfigFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyDefaults(&cfg)
	resolveEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// SourceConfig assembles the driver config for one source name, merging
// the override layers.
func (c *Config) SourceConfig(name string) source.Config {
	merged := defaultOverrides[name]
	if o, ok := c.Sources.Overrides[name]; ok {
		if o.Variant != "" {
			merged.Variant = o.Variant
		}
		if o.Limit > 0 {
			merged.Limit = o.Limit
		}
		if o.MinScore > 0 {
			merged.MinScore = o.MinScore
		}
		if o.APIKeyEnv != "" {
			merged.APIKeyEnv = o.APIKeyEnv
		}
		if o.APIKey != "" {
			merged.APIKey = o.APIKey
		}
		if len(o.Subreddits) > 0 {
			merged.Subreddits = o.Subreddits
		}
	}
	if merged.APIKey == "" && merged.APIKeyEnv != "" {
		merged.APIKey = os.Getenv(merged.APIKeyEnv)
	}

	return source.Config{
		Name:       name,
		Variant:    merged.Variant,
		Limit:      merged.Limit,
		MinScore:   merged.MinScore,
		APIKey:     merged.APIKey,
		Subreddits: merged.Subreddits,
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if len(cfg.Sources.Enabled) == 0 {
		cfg.Sources.Enabled = source.DefaultNames()
	}
	if cfg.Translate.Provider == "" {
		cfg.Translate.Provider = DefaultTranslateProvider
	}
	if cfg.Translate.SecretIDEnv == "" {
		cfg.Translate.SecretIDEnv = "TENCENT_SECRET_ID"
	}
	if cfg.Translate.SecretKeyEnv == "" {
		cfg.Translate.SecretKeyEnv = "TENCENT_SECRET_KEY"
	}
	if cfg.Translate.Region == "" {
		cfg.Translate.Region = DefaultTencentRegion
	}
	if cfg.Translate.SweepLimit == 0 {
		cfg.Translate.SweepLimit = DefaultSweepLimit
	}
	if cfg.Fetch.Timeout.Duration == 0 {
		cfg.Fetch.Timeout.Duration = DefaultFetchTimeout
	}
}

func resolveEnv(cfg *Config) {
	cfg.Translate.SecretID = os.Getenv(cfg.Translate.SecretIDEnv)
	cfg.Translate.SecretKey = os.Getenv(cfg.Translate.SecretKeyEnv)

	for name, o := range cfg.Sources.Overrides {
		if o.APIKeyEnv != "" {
			o.APIKey = os.Getenv(o.APIKeyEnv)
			cfg.Sources.Overrides[name] = o
		}
	}
}

func validate(cfg *Config) error {
	known := make(map[string]bool)
	for _, name := range source.DefaultNames() {
		known[name] = true
	}
	known["reddit"] = true

	for _, name := range cfg.Sources.Enabled {
		if !known[name] {
			return fmt.Errorf("sources.enabled: unknown source %q", name)
		}
	}
	for name := range cfg.Sources.Overrides {
		if !known[name] {
			return fmt.Errorf("sources.overrides: unknown source %q", name)
		}
	}

	switch cfg.Translate.Provider {
	case "tencent":
		// valid
	default:
		return fmt.Errorf("translate.provider: unknown provider %q (want tencent)", cfg.Translate.Provider)
	}

	if cfg.Fetch.Timeout.Duration < 0 {
		return errors.New("fetch.timeout: must not be negative")
	}
	return nil
}

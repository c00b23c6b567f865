package source

import "fmt"

// Config selects and tunes a single driver. Zero values fall back to
// per-driver defaults.
type Config struct {
	Name       string
	Variant    string   // hn listing or lobsters listing
	Limit      int
	MinScore   int
	APIKey     string   // guardian and ph credentials
	Subreddits []string // reddit only
}

// DefaultNames is the set of sources a full run covers, in run order.
// Reddit is registered but opt-in; its public API rate limits too
// aggressively for unattended runs.
func DefaultNames() []string {
	return []string{
		"hn", "showhn", "askhn", "lobsters", "ph", "devto",
		"watcha", "guardian", "nature", "skynews", "arstechnica",
	}
}

// New builds the driver named by cfg.
func New(httpClient *Client, cfg Config) (Driver, error) {
	switch cfg.Name {
	case "hn":
		return NewHN(httpClient, cfg.Variant, cfg.Limit, cfg.MinScore)
	case "showhn":
		return NewShowHN(httpClient, cfg.Limit, cfg.MinScore), nil
	case "askhn":
		return NewAskHN(httpClient, cfg.Limit, cfg.MinScore), nil
	case "lobsters":
		return NewLobsters(httpClient, cfg.Variant, cfg.Limit, cfg.MinScore)
	case "ph":
		return NewProductHunt(httpClient, cfg.APIKey, cfg.MinScore), nil
	case "devto":
		return NewDevto(httpClient, cfg.Limit, cfg.MinScore), nil
	case "watcha":
		return NewWatcha(httpClient, cfg.Limit), nil
	case "guardian":
		return NewGuardian(httpClient, cfg.APIKey, cfg.Limit), nil
	case "reddit":
		return NewReddit(httpClient, cfg.Subreddits, cfg.Limit, cfg.MinScore), nil
	case "nature":
		return NewNature(cfg.Limit), nil
	case "skynews":
		return NewSkyNews(cfg.Limit), nil
	case "arstechnica":
		return NewArsTechnica(cfg.Limit), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Name)
	}
}

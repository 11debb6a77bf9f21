package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ArxivReader/internal/domain"
)

const (
	configPathEnv    = "ARXIV_READER_CONFIG"
	logLevelEnv      = "ARXIV_READER_LOG_LEVEL"
	localRelayEnv    = "ARXIV_READER_LOCAL_RELAY"
	storagePathEnv   = "ARXIV_READER_STORAGE_PATH"
	storageDriverEnv = "ARXIV_READER_STORAGE_DRIVER"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging      LoggingConfig       `yaml:"logging"`
	Scheduler    SchedulerConfig     `yaml:"scheduler"`
	Transport    TransportConfig     `yaml:"transport"`
	Query        QueryConfig         `yaml:"query"`
	Sources      []SourceConfig      `yaml:"sources"`
	QuickFilters []QuickFilterConfig `yaml:"quickFilters"`
	Storage      StorageConfig       `yaml:"storage"`
	Relay        RelayConfig         `yaml:"relay"`
	Defaults     DefaultsConfig      `yaml:"defaults"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SchedulerConfig defines how often watch mode refreshes.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// TransportConfig lists the fetch candidates in the order they are tried.
type TransportConfig struct {
	Timeout      time.Duration   `yaml:"timeout"`
	UserAgent    string          `yaml:"userAgent"`
	LocalRelay   RelayEndpoint   `yaml:"localRelay"`
	PublicRelays []RelayEndpoint `yaml:"publicRelays"`
	Direct       *bool           `yaml:"direct"`
}

// RelayEndpoint is a relay that takes the target as one query parameter.
type RelayEndpoint struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	Param    string `yaml:"param"`
}

// QueryConfig configures the ranged structured query.
type QueryConfig struct {
	BaseURL    string `yaml:"baseUrl"`
	MaxResults int    `yaml:"maxResults"`
}

// SourceConfig describes one feed/category.
type SourceConfig struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	FeedURL string `yaml:"feedUrl"`
}

// QuickFilterConfig is a named keyword group.
type QuickFilterConfig struct {
	Key      string   `yaml:"key"`
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
}

// StorageConfig locates the bookmark slot.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Slot   string `yaml:"slot"`
}

// RelayConfig configures the relay subcommand.
type RelayConfig struct {
	Addr           string        `yaml:"addr"`
	Path           string        `yaml:"path"`
	Param          string        `yaml:"param"`
	AllowedHosts   []string      `yaml:"allowedHosts"`
	RPS            float64       `yaml:"rps"`
	Burst          int           `yaml:"burst"`
	Timeout        time.Duration `yaml:"timeout"`
	TrustedProxies []string      `yaml:"trustedProxies"`
}

// DefaultsConfig is the initial filter state.
type DefaultsConfig struct {
	DateRange        string   `yaml:"dateRange"`
	ActiveCategories []string `yaml:"activeCategories"`
	QuickFilter      string   `yaml:"quickFilter"`
}

// Load reads YAML configuration from ARXIV_READER_CONFIG (if set) and
// applies environment overrides.
func Load() Config {
	return LoadFrom(os.Getenv(configPathEnv))
}

// LoadFrom reads YAML configuration from path (if non-empty) and applies
// environment overrides. Unreadable or invalid files fall back to defaults.
func LoadFrom(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// DomainSources converts the configured sources, skipping entries without id.
func (c Config) DomainSources() []domain.SourceDescriptor {
	out := make([]domain.SourceDescriptor, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s.ID == "" {
			continue
		}
		feedURL := s.FeedURL
		if feedURL == "" {
			feedURL = "https://rss.arxiv.org/rss/" + s.ID
		}
		name := s.Name
		if name == "" {
			name = s.ID
		}
		out = append(out, domain.SourceDescriptor{ID: s.ID, DisplayName: name, FeedURL: feedURL})
	}
	return out
}

// DomainQuickFilters converts the configured keyword groups.
func (c Config) DomainQuickFilters() []domain.QuickFilter {
	out := make([]domain.QuickFilter, 0, len(c.QuickFilters))
	for _, q := range c.QuickFilters {
		out = append(out, domain.QuickFilter{Key: q.Key, Label: q.Label, Keywords: q.Keywords})
	}
	return out
}

// InitialState builds the starting filter state. An empty active list means
// every configured source.
func (c Config) InitialState() domain.FilterState {
	active := c.Defaults.ActiveCategories
	if len(active) == 0 {
		for _, s := range c.DomainSources() {
			active = append(active, s.ID)
		}
	}
	r, err := domain.ParseDateRange(c.Defaults.DateRange)
	if err != nil {
		log.Printf("config: %v, using %s", err, domain.RangeToday)
		r = domain.RangeToday
	}
	return domain.NewFilterState(active, c.Defaults.QuickFilter, r)
}

// DirectEnabled reports whether the last-resort direct transport is used.
func (t TransportConfig) DirectEnabled() bool {
	return t.Direct == nil || *t.Direct
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(localRelayEnv); v != "" {
		c.Transport.LocalRelay = parseRelayEnv(v, c.Transport.LocalRelay)
	}

	if v := os.Getenv(storagePathEnv); v != "" {
		c.Storage.Path = v
	}

	if v := os.Getenv(storageDriverEnv); v != "" {
		c.Storage.Driver = v
	}
}

// parseRelayEnv accepts "off", a bare endpoint, or an endpoint ending in
// "?<param>=".
func parseRelayEnv(value string, base RelayEndpoint) RelayEndpoint {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "off") || strings.EqualFold(value, "none") {
		base.Endpoint = ""
		return base
	}
	if endpoint, rest, ok := strings.Cut(value, "?"); ok && strings.HasSuffix(rest, "=") && !strings.Contains(rest, "&") {
		base.Endpoint = endpoint
		base.Param = strings.TrimSuffix(rest, "=")
		return base
	}
	base.Endpoint = value
	return base
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	if override.Transport.Timeout > 0 {
		base.Transport.Timeout = override.Transport.Timeout
	}
	if override.Transport.UserAgent != "" {
		base.Transport.UserAgent = override.Transport.UserAgent
	}
	if override.Transport.LocalRelay.Endpoint != "" {
		base.Transport.LocalRelay = override.Transport.LocalRelay
	}
	if override.Transport.PublicRelays != nil {
		base.Transport.PublicRelays = override.Transport.PublicRelays
	}
	if override.Transport.Direct != nil {
		base.Transport.Direct = override.Transport.Direct
	}

	if override.Query.BaseURL != "" {
		base.Query.BaseURL = override.Query.BaseURL
	}
	if override.Query.MaxResults > 0 {
		base.Query.MaxResults = override.Query.MaxResults
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}
	if len(override.QuickFilters) > 0 {
		base.QuickFilters = override.QuickFilters
	}

	if override.Storage.Driver != "" {
		base.Storage.Driver = override.Storage.Driver
	}
	if override.Storage.Path != "" {
		base.Storage.Path = override.Storage.Path
	}
	if override.Storage.Slot != "" {
		base.Storage.Slot = override.Storage.Slot
	}

	if override.Relay.Addr != "" {
		base.Relay.Addr = override.Relay.Addr
	}
	if override.Relay.Path != "" {
		base.Relay.Path = override.Relay.Path
	}
	if override.Relay.Param != "" {
		base.Relay.Param = override.Relay.Param
	}
	if len(override.Relay.AllowedHosts) > 0 {
		base.Relay.AllowedHosts = override.Relay.AllowedHosts
	}
	if override.Relay.RPS > 0 {
		base.Relay.RPS = override.Relay.RPS
	}
	if override.Relay.Burst > 0 {
		base.Relay.Burst = override.Relay.Burst
	}
	if override.Relay.Timeout > 0 {
		base.Relay.Timeout = override.Relay.Timeout
	}
	if len(override.Relay.TrustedProxies) > 0 {
		base.Relay.TrustedProxies = override.Relay.TrustedProxies
	}

	if override.Defaults.DateRange != "" {
		base.Defaults.DateRange = override.Defaults.DateRange
	}
	if len(override.Defaults.ActiveCategories) > 0 {
		base.Defaults.ActiveCategories = override.Defaults.ActiveCategories
	}
	if override.Defaults.QuickFilter != "" {
		base.Defaults.QuickFilter = override.Defaults.QuickFilter
	}

	return base
}

func defaultStoragePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "arxivreader")
	}
	return ".arxivreader"
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Scheduler: SchedulerConfig{Interval: 30 * time.Minute},
		Transport: TransportConfig{
			Timeout:    20 * time.Second,
			UserAgent:  "ArxivReader/1.0",
			LocalRelay: RelayEndpoint{Name: "local", Endpoint: "http://localhost:8787/proxy", Param: "url"},
			PublicRelays: []RelayEndpoint{
				{Name: "allorigins", Endpoint: "https://api.allorigins.win/raw", Param: "url"},
				{Name: "corsproxy", Endpoint: "https://corsproxy.io/", Param: "url"},
				{Name: "codetabs", Endpoint: "https://api.codetabs.com/v1/proxy", Param: "quest"},
			},
		},
		Query: QueryConfig{BaseURL: "https://export.arxiv.org/api/query", MaxResults: 100},
		Sources: []SourceConfig{
			{ID: "cs.AI", Name: "Artificial Intelligence"},
			{ID: "cs.CL", Name: "Computation and Language"},
			{ID: "cs.CV", Name: "Computer Vision"},
			{ID: "cs.LG", Name: "Machine Learning"},
			{ID: "cs.MA", Name: "Multiagent Systems"},
			{ID: "cs.RO", Name: "Robotics"},
			{ID: "stat.ML", Name: "Statistics - Machine Learning"},
		},
		QuickFilters: []QuickFilterConfig{
			{Key: "llm", Label: "LLMs", Keywords: []string{"language model", "llm", "gpt", "transformer", "prompt", "instruction tuning"}},
			{Key: "agents", Label: "Agents", Keywords: []string{"agent", "multi-agent", "tool use", "planning"}},
			{Key: "vision", Label: "Vision", Keywords: []string{"image", "vision", "visual", "video", "segmentation", "diffusion"}},
			{Key: "rl", Label: "Reinforcement Learning", Keywords: []string{"reinforcement learning", "policy", "reward", "rlhf"}},
			{Key: "safety", Label: "Safety", Keywords: []string{"safety", "alignment", "robustness", "adversarial", "jailbreak"}},
		},
		Storage: StorageConfig{Driver: "file", Path: defaultStoragePath(), Slot: "bookmarks"},
		Relay: RelayConfig{
			Addr:         "localhost:8787",
			Path:         "/proxy",
			Param:        "url",
			AllowedHosts: []string{"arxiv.org"},
			RPS:          5,
			Burst:        20,
			Timeout:      20 * time.Second,
		},
		Defaults: DefaultsConfig{DateRange: "today", QuickFilter: domain.QuickFilterAll},
	}
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"

	"github.com/rem79/fear-greed-index/internal/browser"
	"github.com/rem79/fear-greed-index/internal/scraper"
)

const appName = "fear-greed-index"

// Config holds all application configuration
type Config struct {
	Version   int             `toml:"version"`
	Target    TargetConfig    `toml:"target"`
	Browser   BrowserConfig   `toml:"browser"`
	Intercept InterceptConfig `toml:"intercept"`
	Selectors SelectorsConfig `toml:"selectors"`
	Text      TextConfig      `toml:"text"`
	Output    OutputConfig    `toml:"output"`
	Schedule  ScheduleConfig  `toml:"schedule"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Debug     DebugConfig     `toml:"debug"`
	Log       LogConfig       `toml:"log"`
}

type TargetConfig struct {
	URL string `toml:"url"`
}

// Browser modes
const (
	ModeChrome = "chromedp"
	ModeStatic = "static"
)

type BrowserConfig struct {
	Mode              string   `toml:"mode"` // "chromedp" or "static"
	Headless          bool     `toml:"headless"`
	UserAgent         string   `toml:"user_agent"`
	RunTimeout        Duration `toml:"run_timeout"`
	StabilizationWait Duration `toml:"stabilization_wait"`
	SelectorWait      Duration `toml:"selector_wait"`
	HideSelectors     []string `toml:"hide_selectors"`
	Cookies           []Cookie `toml:"cookies"`
}

// Cookie is set before navigation, typically to pre-accept consent banners
type Cookie struct {
	Name   string `toml:"name"`
	Value  string `toml:"value"`
	Domain string `toml:"domain"`
	Path   string `toml:"path"`
}

type InterceptConfig struct {
	ServiceMarker string   `toml:"service_marker"`
	PathMarkers   []string `toml:"path_markers"`
	IndicatorKey  string   `toml:"indicator_key"`
}

type SelectorsConfig struct {
	Value          []string `toml:"value"`
	Rating         []string `toml:"rating"`
	FragmentValue  []string `toml:"fragment_value"`
	FragmentRating []string `toml:"fragment_rating"`
	ScanTags       string   `toml:"scan_tags"`
	GaugeFragments []string `toml:"gauge_fragments"`
	AncestorDepth  int      `toml:"ancestor_depth"`
	Aria           string   `toml:"aria"`
	AriaKeywords   []string `toml:"aria_keywords"`
	EmbeddedBlobs  string   `toml:"embedded_blobs"`
}

type TextConfig struct {
	Patterns      []string `toml:"patterns"`
	RatingPattern string   `toml:"rating_pattern"`
}

type OutputConfig struct {
	Path      string `toml:"path"`
	HistoryDB string `toml:"history_db"` // empty means <cache dir>/history.db
}

type ScheduleConfig struct {
	Cron     string `toml:"cron"`
	Timezone string `toml:"timezone"`
}

type MetricsConfig struct {
	Addr string `toml:"addr"` // empty disables the /metrics listener
}

type DebugConfig struct {
	SaveArtifacts bool `toml:"save_artifacts"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Target: TargetConfig{
			URL: "https://www.cnn.com/markets/fear-and-greed",
		},
		Browser: BrowserConfig{
			Mode:              ModeChrome,
			Headless:          true,
			UserAgent:         browser.DefaultUserAgent,
			RunTimeout:        Duration(2 * time.Minute),
			StabilizationWait: Duration(5 * time.Second),
			SelectorWait:      Duration(3 * time.Second),
			HideSelectors: []string{
				`#onetrust-consent-sdk`,
				`.fc-consent-root`,
				`[class*="modal"]`,
				`[id*="paywall"]`,
			},
		},
		Intercept: InterceptConfig{
			ServiceMarker: scraper.ServiceMarker,
			PathMarkers:   clone(scraper.PathMarkers),
			IndicatorKey:  scraper.IndicatorKey,
		},
		Selectors: SelectorsConfig{
			Value:          []string{scraper.GaugeValue},
			Rating:         []string{scraper.GaugeRating},
			FragmentValue:  clone(scraper.FragmentValueSelectors),
			FragmentRating: clone(scraper.FragmentRatingSelectors),
			ScanTags:       scraper.ScanTags,
			GaugeFragments: clone(scraper.GaugeFragments),
			AncestorDepth:  6,
			Aria:           scraper.AriaValueTags,
			AriaKeywords:   clone(scraper.AriaKeywords),
			EmbeddedBlobs:  scraper.EmbeddedBlobs,
		},
		Text: TextConfig{
			Patterns:      clone(scraper.TextPatterns),
			RatingPattern: scraper.RatingTextPattern,
		},
		Output: OutputConfig{
			Path: "data.json",
		},
		Schedule: ScheduleConfig{
			Cron:     "*/30 * * * *",
			Timezone: "America/New_York",
		},
		Debug: DebugConfig{
			SaveArtifacts: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, appName), nil
}

// Load reads the config from the default path.
// A missing file is not an error: defaults are returned.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path on top of the defaults, then applies
// .env and FGI_* environment overrides. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// HistoryPath returns the SQLite history path, defaulting into the cache dir
func (c *Config) HistoryPath() (string, error) {
	if c.Output.HistoryDB != "" {
		return c.Output.HistoryDB, nil
	}
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Rules converts the selector and pattern sections into scraper rules
func (c *Config) Rules() (scraper.Rules, error) {
	return scraper.CompileRules(scraper.RuleSource{
		ServiceMarker:           c.Intercept.ServiceMarker,
		PathMarkers:             c.Intercept.PathMarkers,
		IndicatorKey:            c.Intercept.IndicatorKey,
		ValueSelectors:          c.Selectors.Value,
		RatingSelectors:         c.Selectors.Rating,
		FragmentValueSelectors:  c.Selectors.FragmentValue,
		FragmentRatingSelectors: c.Selectors.FragmentRating,
		ScanTags:                c.Selectors.ScanTags,
		GaugeFragments:          c.Selectors.GaugeFragments,
		AncestorDepth:           c.Selectors.AncestorDepth,
		AriaSelector:            c.Selectors.Aria,
		AriaKeywords:            c.Selectors.AriaKeywords,
		TextPatterns:            c.Text.Patterns,
		RatingTextPattern:       c.Text.RatingPattern,
		BlobSelector:            c.Selectors.EmbeddedBlobs,
	})
}

// Validate checks the settings that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	u, err := url.Parse(c.Target.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid target url %q", c.Target.URL)
	}

	switch c.Browser.Mode {
	case ModeChrome, ModeStatic:
	default:
		return fmt.Errorf("unknown browser mode %q (want %q or %q)", c.Browser.Mode, ModeChrome, ModeStatic)
	}

	if c.Browser.RunTimeout <= 0 || c.Browser.SelectorWait <= 0 || c.Browser.StabilizationWait < 0 {
		return fmt.Errorf("browser timeouts must be positive")
	}

	if c.Output.Path == "" {
		return fmt.Errorf("output path is required")
	}

	if c.Intercept.ServiceMarker == "" {
		return fmt.Errorf("intercept service marker is required")
	}

	if _, err := c.Rules(); err != nil {
		return err
	}

	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", c.Schedule.Cron, err)
	}

	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Schedule.Timezone, err)
	}

	return nil
}

// clone copies defaults so decoding into a Config never writes through to
// the package-level slices
func clone(s []string) []string {
	return append([]string(nil), s...)
}

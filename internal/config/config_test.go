package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rem79/fear-greed-index/internal/browser"
	"github.com/rem79/fear-greed-index/internal/scraper"
)

func TestLoadFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, Default().Target.URL, cfg.Target.URL)
	assert.Equal(t, ModeChrome, cfg.Browser.Mode)
	assert.Equal(t, 5*time.Second, cfg.Browser.StabilizationWait.Std())
}

func TestLoadFile_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = 1

[browser]
mode = "static"
selector_wait = "750ms"

[intercept]
path_markers = ["graphdata"]

[output]
path = "/tmp/fgi.json"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, ModeStatic, cfg.Browser.Mode)
	assert.Equal(t, 750*time.Millisecond, cfg.Browser.SelectorWait.Std())
	assert.Equal(t, []string{"graphdata"}, cfg.Intercept.PathMarkers)
	assert.Equal(t, "/tmp/fgi.json", cfg.Output.Path)

	// untouched sections keep their defaults
	assert.Equal(t, scraper.ServiceMarker, cfg.Intercept.ServiceMarker)

	// decoding must not have written through to the built-in defaults
	assert.Equal(t, []string{"graphdata", "current"}, scraper.PathMarkers)
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("FGI_OUTPUT_PATH", "env.json")
	t.Setenv("FGI_HEADLESS", "false")
	t.Setenv("FGI_BROWSER_MODE", "static")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "env.json", cfg.Output.Path)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, ModeStatic, cfg.Browser.Mode)
}

func TestValidate(t *testing.T) {
	t.Run("unknown mode", func(t *testing.T) {
		cfg := Default()
		cfg.Browser.Mode = "firefox"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad pattern", func(t *testing.T) {
		cfg := Default()
		cfg.Text.Patterns = []string{`(unclosed`}
		assert.Error(t, cfg.Validate())
	})

	t.Run("pattern without capture group", func(t *testing.T) {
		cfg := Default()
		cfg.Text.Patterns = []string{`index is at \d+`}
		assert.Error(t, cfg.Validate())
	})

	t.Run("rating pattern without capture group", func(t *testing.T) {
		cfg := Default()
		cfg.Text.RatingPattern = `(?i)extreme fear`
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad cron", func(t *testing.T) {
		cfg := Default()
		cfg.Schedule.Cron = "every now and then"
		assert.Error(t, cfg.Validate())
	})

	t.Run("relative url", func(t *testing.T) {
		cfg := Default()
		cfg.Target.URL = "/markets/fear-and-greed"
		assert.Error(t, cfg.Validate())
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := Default()
		assert.NoError(t, cfg.Validate())
		assert.Equal(t, browser.DefaultUserAgent, cfg.Browser.UserAgent)
	})
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Browser.RunTimeout = Duration(90 * time.Second)
	require.NoError(t, cfg.SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, loaded.Browser.RunTimeout.Std())
	assert.Equal(t, cfg.Text.Patterns, loaded.Text.Patterns)
}

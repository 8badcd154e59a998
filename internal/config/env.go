package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Duration is a time.Duration that reads and writes as "5s" in TOML
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// envOverrides are read from FGI_* variables. Unset variables leave the
// file or default value alone.
type envOverrides struct {
	TargetURL   *string `envconfig:"TARGET_URL"`
	OutputPath  *string `envconfig:"OUTPUT_PATH"`
	HistoryDB   *string `envconfig:"HISTORY_DB"`
	BrowserMode *string `envconfig:"BROWSER_MODE"`
	Headless    *bool   `envconfig:"HEADLESS"`
	LogLevel    *string `envconfig:"LOG_LEVEL"`
	LogFormat   *string `envconfig:"LOG_FORMAT"`
	MetricsAddr *string `envconfig:"METRICS_ADDR"`
	Cron        *string `envconfig:"SCHEDULE_CRON"`
}

const envPrefix = "FGI"

// applyEnv loads .env from the working directory if present, then applies
// FGI_* overrides onto cfg
func applyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return fmt.Errorf("failed to read %s_* environment: %w", envPrefix, err)
	}

	setString(&cfg.Target.URL, env.TargetURL)
	setString(&cfg.Output.Path, env.OutputPath)
	setString(&cfg.Output.HistoryDB, env.HistoryDB)
	setString(&cfg.Browser.Mode, env.BrowserMode)
	setString(&cfg.Log.Level, env.LogLevel)
	setString(&cfg.Log.Format, env.LogFormat)
	setString(&cfg.Metrics.Addr, env.MetricsAddr)
	setString(&cfg.Schedule.Cron, env.Cron)
	if env.Headless != nil {
		cfg.Browser.Headless = *env.Headless
	}

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

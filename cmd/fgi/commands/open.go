package commands

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/rem79/fear-greed-index/internal/config"
)

func init() {
	rootCmd.AddCommand(openCmd)
}

var openCmd = &cobra.Command{
	Use:       "open <config|output|cache>",
	Short:     "Opens the config file, the snapshot file or the cache directory.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"config", "output", "cache"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			path string
			err  error
		)

		switch args[0] {
		case "config":
			path = configPath
			if path == "" {
				path, err = config.ConfigPath()
			}
		case "output":
			var cfg *config.Config
			if cfg, err = loadConfig(); err == nil {
				path, err = filepath.Abs(cfg.Output.Path)
			}
		case "cache":
			path, err = config.CacheDir()
		}
		if err != nil {
			return fmt.Errorf("failed to get path: %w", err)
		}

		if err := browser.OpenFile(path); err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		return nil
	},
}

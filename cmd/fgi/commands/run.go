package commands

import (
	"github.com/spf13/cobra"

	"github.com/rem79/fear-greed-index/internal/app"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extracts the index once and writes the snapshot file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := app.New(cfg, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.RunOnce(cmd.Context())
		if err != nil {
			return err
		}

		cmd.Printf("%d %s (%s)\n", res.Score, res.Rating, res.Source)
		return nil
	},
}

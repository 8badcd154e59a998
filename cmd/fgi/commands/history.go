package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rem79/fear-greed-index/internal/store"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [-n <count>]",
	Short: "Lists the most recent resolved runs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		path, err := cfg.HistoryPath()
		if err != nil {
			return err
		}
		h, err := store.OpenHistory(path)
		if err != nil {
			return err
		}
		defer h.Close()

		runs, err := h.Recent(historyLimit)
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}
		if len(runs) == 0 {
			cmd.Println("No runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RECORDED\tSCORE\tRATING\tSOURCE")
		for _, r := range runs {
			rating := string(r.Rating)
			if r.RatingDerived {
				rating += "*"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", humanize.Time(r.RecordedAt), r.Score, rating, r.Source)
		}
		return w.Flush()
	},
}

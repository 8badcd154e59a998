package commands

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/spf13/cobra"

	"github.com/rem79/fear-greed-index/internal/browser"
	"github.com/rem79/fear-greed-index/internal/logger"
)

func init() {
	rootCmd.AddCommand(botTestCmd)
}

var botTestCmd = &cobra.Command{
	Use:   "bot-test",
	Short: "Opens bot.sannysoft.com with the stealth browser options to audit the fingerprint.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.Named("bot-test")

		log.Info("opening bot.sannysoft.com with stealth browser options")

		// Non-headless so you can see it
		opts := browser.Options(false, cfg.Browser.UserAgent)

		allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
		defer cancel()

		ctx, cancel := chromedp.NewContext(allocCtx)
		defer cancel()

		err = chromedp.Run(ctx,
			chromedp.Navigate("https://bot.sannysoft.com"),
			chromedp.WaitVisible("body", chromedp.ByQuery),
		)
		if err != nil {
			return fmt.Errorf("failed to navigate: %w", err)
		}

		cmd.Println("Press Enter to close the browser...")
		fmt.Scanln()

		log.Info("done")
		return nil
	},
}

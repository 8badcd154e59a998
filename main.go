// Command fear-greed-index runs one extraction and exits: 0 when a score
// was persisted (live or from the last snapshot), 1 otherwise.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rem79/fear-greed-index/internal/app"
	"github.com/rem79/fear-greed-index/internal/config"
	"github.com/rem79/fear-greed-index/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return 1
	}
	defer logger.Sync()
	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, app.Options{})
	if err != nil {
		log.Errorw("failed to start", "error", err)
		return 1
	}
	defer a.Close()

	if _, err := a.RunOnce(ctx); err != nil {
		log.Errorw("run failed", "error", err)
		return 1
	}
	return 0
}

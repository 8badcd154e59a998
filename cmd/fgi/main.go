// Command fgi runs, schedules and inspects fear & greed index extraction.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rem79/fear-greed-index/cmd/fgi/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.ExecuteContext(ctx)
}

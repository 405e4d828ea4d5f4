// Command fsixctl drives an FsiX daemon from the terminal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(connectDaemon).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

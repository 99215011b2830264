package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gastos/internal/commands"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// cobra has already printed the error.
	err := commands.NewRootCmd(version).ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}

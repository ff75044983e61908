package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Harshitk-cp/voicedesk/internal/cli"
	"github.com/Harshitk-cp/voicedesk/internal/config"
)

func main() {
	if err := config.Load(); err != nil {
		cli.PrintError(cli.NewOutputOptions(), err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand()
	if err := root.Execute(ctx); err != nil {
		cli.PrintError(root.Options(), err)
		stop()
		os.Exit(1)
	}
}

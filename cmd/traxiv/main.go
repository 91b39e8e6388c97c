package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"traxiv/internal/cli"
	"traxiv/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	root := cli.NewRootCommand(cfg)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}

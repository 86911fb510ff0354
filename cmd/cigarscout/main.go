// Package main is the entry point for the cigarscout CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cigarscout/cigarscout/internal/cmd"
)

// version is populated by the release build.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	os.Exit(cmd.Execute(ctx, version))
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"krogercart/cmd/krogercart/commands"
)

func main() {
	// Ctrl+C cancels the context, which aborts a stuck authorization
	// wait along with everything else.
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := commands.Execute(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Command fqclock is the command-line client for the snapshot sync API.
//
// It logs in by name, pushes a snapshot file, pulls the stored snapshot and
// keeps a local SQLite cache so a push that cannot reach the server is not
// lost.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

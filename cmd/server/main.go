// Command server runs the snapshot sync HTTP API.
//
// Configuration comes from FQCLOCK_CONFIG or CONFIG_PATH (default
// ./fqclock.yaml, then ./config.yaml) and the environment. Without a reachable database the server keeps running on
// in-memory storage unless DATABASE_REQUIRE_DURABLE is set.
//
// Exit codes: 0 = clean shutdown, 1 = error.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/fqclock-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Printf("server: %v", err)
		stop()
		os.Exit(1)
	}
}

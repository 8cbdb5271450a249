package main

import (
	"context"
	"log"

	"votegate/internal/app/bootstrap"
)

// Portal process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (upstream client + camera + orchestrator module).
// 3) Start HTTP server and, when enabled, the results poller.
func main() {
	log.Println("votegate portal starting")
	app, err := bootstrap.BuildPortal()
	if err != nil {
		log.Fatalf("bootstrap portal failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("portal shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("votegate portal stopped with error: %v", err)
	}
}

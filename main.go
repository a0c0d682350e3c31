package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/websocket-relay/modules/api"
	"github.com/example/websocket-relay/modules/presence"
	"github.com/example/websocket-relay/modules/relay"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== WebSocket Relay - Signaling + Chat Fan-Out ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	relayModule := relay.NewModule(relay.ConfigFromEnv(), slog.Default())
	presenceModule := presence.NewModule()
	apiModule := api.NewModule()

	// Inject the relay engine into the API module
	// (WebSocket transports attach directly, not via ServiceContainer)
	apiModule.SetEngine(relayModule.Engine())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - relay: Core domain (dispatch loop, ServiceProviderModule + EventEmitterModule)
	// - presence: Event consumer (activity counters per room)
	// - api: Driving adapter (Fiber HTTP/WebSocket server, depends on relay + presence)
	app.Register(relayModule)
	app.Register(presenceModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                        - Health check")
	log.Println("  GET    /api/v1/rooms                  - List live rooms")
	log.Println("  GET    /api/v1/rooms/:name/history    - Retained room history")
	log.Println("  GET    /api/v1/rooms/:name/members    - Joined peers of a room")
	log.Println("  GET    /api/v1/stats                  - Room activity counters")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Inbound:  join, offer, answer, ice-candidate, chat-message, get-history")
	log.Println("  Outbound: new-peer, chat-history, chat-message,")
	log.Println("            user-joined-notification, user-left-notification, system-message")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

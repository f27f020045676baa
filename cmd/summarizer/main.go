package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dashboard-summarizer/internal/bootstrap"
	"dashboard-summarizer/internal/config"
	"dashboard-summarizer/internal/server"
	"dashboard-summarizer/internal/tracer"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer("dashboard-summarizer")
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewSummarizerContainer(cfg)
	defer container.Logger.Sync()

	// 3. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down summarizer...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// 4. Run Server
	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}

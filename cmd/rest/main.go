package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"refund-lifecycle-be/internal/bootstrap"
	"refund-lifecycle-be/internal/config"
	"refund-lifecycle-be/internal/pkg/logger"
	"refund-lifecycle-be/internal/server"
	"refund-lifecycle-be/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer sysLogger.Sync()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, sysLogger)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg, sysLogger)
	if err != nil {
		log.Fatalf("Unable to bootstrap: %v", err)
	}
	defer container.Close()

	// 4. Start Background Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("Unable to start automation consumer: %v", err)
	}
	if err := container.RetryScheduler.Start(); err != nil {
		log.Fatalf("Unable to start retry scheduler: %v", err)
	}
	defer container.RetryScheduler.Stop()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		sysLogger.Info("HTTP", "Shutting down", nil)
		if err := srv.Shutdown(); err != nil {
			sysLogger.Error("HTTP", "Shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		sysLogger.Error("HTTP", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}

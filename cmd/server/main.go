package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"traffic-publisher/src/config"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/server"
	"traffic-publisher/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup logger
	appLogger, err := logger.NewFileLogger(conf.LogFile, conf.Name, conf.LogLevel)
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Close()

	// 4. Run ledger
	db, err := storage.NewDatabase(conf.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
		os.Exit(1)
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to open db: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	// 5. Serve until interrupted
	srv := server.NewStatusServer(conf.MConfig, db, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			appLogger.Error("Shutdown failed: %v", err)
		}
		<-errCh
	}

	appLogger.Info("Shutdown complete.")
}

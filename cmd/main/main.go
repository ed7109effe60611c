package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"traffic-publisher/src/analysis"
	"traffic-publisher/src/config"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"
	"traffic-publisher/src/pipeline"
	"traffic-publisher/src/urllist"
)

// -----------------------------------------------------------------------------

func main() {
	os.Exit(run())
}

// -----------------------------------------------------------------------------

func run() int {

	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	envFile := flag.String("env", ".env", "path to dotenv file with credentials")
	var uploads mappingFlag
	flag.Var(&uploads, "publish", "publish LOCAL=REMOTE to the repository and exit (repeatable)")
	flag.Parse()

	// 2. Load credentials and config
	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Printf("Error loading env file: %v\n", err)
		return 1
	}
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return 1
	}
	creds := config.LoadCredentials()

	// 3. Setup logger
	appLogger, err := logger.NewFileLogger(conf.LogFile, conf.Name, conf.LogLevel)
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		return 1
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Publisher, repository verified up front
	pub, err := setupPublisher(ctx, conf.MConfig, creds, appLogger)
	if err != nil {
		return 1
	}

	if len(uploads) > 0 {
		return publishManual(ctx, pub, uploads, appLogger)
	}

	// 5. Run ledger
	db, err := setupDatabase(conf.MConfig, appLogger)
	if err != nil {
		return 1
	}
	defer db.Close()
	if err := db.CleanupOldData(); err != nil {
		appLogger.Warning("Ledger cleanup failed: %v", err)
	}

	// 6. Inputs
	mailbox, err := setupMailbox(conf.MConfig, creds, appLogger)
	if err != nil {
		return 1
	}
	sources, err := setupDataSources(conf.MConfig, creds, appLogger)
	if err != nil {
		return 1
	}

	// 7. Outputs
	archiver := setupArchive(ctx, conf.MConfig, creds, appLogger)
	facade := analysis.NewAnalysisFacade(expectedTypes(conf.MConfig), appLogger)
	urls := urllist.NewGenerator(pub, conf.DataDir, appLogger)

	// 8. Run once
	orch := pipeline.NewOrchestrator(conf.MConfig, mailbox, facade, sources, pub, urls, archiver, db, appLogger)
	if _, err := orch.Run(ctx); err != nil {
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------

func expectedTypes(cfg *models.MConfig) []string {
	if len(cfg.Analytics.MeasurementTypes) > 0 {
		return cfg.Analytics.MeasurementTypes
	}
	return models.DefaultMeasurementTypes()
}

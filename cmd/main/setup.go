package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"traffic-publisher/src/archive"
	datasource "traffic-publisher/src/data_source"
	"traffic-publisher/src/data_source/wix"
	"traffic-publisher/src/interfaces"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/mailbox"
	"traffic-publisher/src/models"
	"traffic-publisher/src/network"
	"traffic-publisher/src/publisher"
	"traffic-publisher/src/storage"
	ghstore "traffic-publisher/src/store/github"
)

// -----------------------------------------------------------------------------

// setupDatabase opens the run ledger selected by config
func setupDatabase(config *models.MConfig, appLogger *logger.Logger) (interfaces.IDatabase, error) {
	db, err := storage.NewDatabase(config, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
		return nil, err
	}
	return db, nil
}

// -----------------------------------------------------------------------------

// setupPublisher builds the GitHub store, checks the repository is reachable
// and wraps the store in a Publisher.
func setupPublisher(ctx context.Context, config *models.MConfig, creds models.MCredentials, appLogger *logger.Logger) (*publisher.Publisher, error) {
	store, err := ghstore.NewGitHubStore(config.Repository, creds.GitHubToken, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init repository client: %v", err)
		return nil, err
	}
	if err := store.Verify(ctx); err != nil {
		appLogger.Critical("Repository check failed: %v", err)
		return nil, err
	}
	return publisher.NewPublisher(store, config.Repository.Organization, config.Repository.RawHost, appLogger), nil
}

// -----------------------------------------------------------------------------

// setupMailbox initializes the IMAP mailbox
func setupMailbox(config *models.MConfig, creds models.MCredentials, appLogger *logger.Logger) (interfaces.IMailbox, error) {
	mb, err := mailbox.NewIMAPMailbox(config.Mailbox, creds.EmailPassword, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init mailbox: %v", err)
		return nil, err
	}
	return mb, nil
}

// -----------------------------------------------------------------------------

// setupDataSources returns nil when the analytics API is disabled
func setupDataSources(config *models.MConfig, creds models.MCredentials, appLogger *logger.Logger) (*datasource.MultiSourceManager, error) {
	if !config.Analytics.Enabled {
		appLogger.Info("Analytics API disabled, using mailbox reports only")
		return nil, nil
	}

	netMgr, err := network.NewNetworkManager(time.Duration(config.Analytics.Timeout)*time.Second, config.Analytics.Proxy, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init network manager: %v", err)
		return nil, err
	}

	source, err := wix.NewWixAnalyticsSource(config.Analytics, creds, netMgr, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init analytics source: %v", err)
		return nil, err
	}

	if config.Analytics.DaysBack <= 0 {
		config.Analytics.DaysBack = source.DaysBack
	}

	manager := datasource.NewMultiSourceManager([]interfaces.IDataSource{source}, appLogger)
	appLogger.Info("Analytics sources %v over the last %d days", manager.Names(), config.Analytics.DaysBack)
	return manager, nil
}

// -----------------------------------------------------------------------------

// setupArchive returns nil when archiving is disabled or unavailable; the
// pipeline runs without it.
func setupArchive(ctx context.Context, config *models.MConfig, creds models.MCredentials, appLogger *logger.Logger) interfaces.IArchiver {
	if !config.Archive.Enabled {
		return nil
	}

	a, err := archive.NewMinIO(config.Archive, creds.MinioAccessKey, creds.MinioSecretKey, appLogger)
	if err != nil {
		appLogger.Warning("Archive disabled: %v", err)
		return nil
	}
	if err := a.EnsureBucket(ctx); err != nil {
		appLogger.Warning("Archive disabled, bucket %s unavailable: %v", config.Archive.Bucket, err)
		return nil
	}
	return a
}

// -----------------------------------------------------------------------------

// mappingFlag collects repeated LOCAL=REMOTE arguments in order.
type mappingFlag []models.MFileMapping

func (m *mappingFlag) String() string {
	parts := make([]string, 0, len(*m))
	for _, f := range *m {
		parts = append(parts, f.LocalPath+"="+f.RepoPath)
	}
	return strings.Join(parts, ",")
}

func (m *mappingFlag) Set(v string) error {
	local, remote, ok := strings.Cut(v, "=")
	if !ok || local == "" || remote == "" {
		return fmt.Errorf("expected LOCAL=REMOTE, got %q", v)
	}
	*m = append(*m, models.MFileMapping{LocalPath: local, RepoPath: remote})
	return nil
}

// -----------------------------------------------------------------------------

// publishManual uploads ad-hoc files. Failed items are logged and skipped;
// the exit code reports whether every item made it.
func publishManual(ctx context.Context, pub *publisher.Publisher, uploads mappingFlag, appLogger *logger.Logger) int {
	records := pub.PublishBatch(ctx, uploads)
	for _, r := range records {
		fmt.Println(r.RawURL)
	}
	if len(records) < len(uploads) {
		appLogger.Error("%d of %d uploads failed", len(uploads)-len(records), len(uploads))
		return 1
	}
	return 0
}

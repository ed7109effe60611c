package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"traffic-publisher/src/analysis"
	datasource "traffic-publisher/src/data_source"
	"traffic-publisher/src/helpers"
	"traffic-publisher/src/interfaces"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"
	"traffic-publisher/src/publisher"
	"traffic-publisher/src/urllist"
	"traffic-publisher/src/utils"

	"github.com/google/uuid"
)

// Orchestrator runs the whole report pipeline once, sequentially.
type Orchestrator struct {
	Config    *models.MConfig
	Mailbox   interfaces.IMailbox
	Analysis  *analysis.AnalysisFacade
	Sources   *datasource.MultiSourceManager // nil when the analytics API is disabled
	Publisher *publisher.Publisher
	URLList   *urllist.Generator
	Archiver  interfaces.IArchiver // nil when archiving is disabled
	DB        interfaces.IDatabase
	Logger    *logger.Logger
	Errors    *helpers.ErrorHandler
	Now       func() time.Time
}

// -----------------------------------------------------------------------------

func NewOrchestrator(
	cfg *models.MConfig,
	mailbox interfaces.IMailbox,
	facade *analysis.AnalysisFacade,
	sources *datasource.MultiSourceManager,
	pub *publisher.Publisher,
	urls *urllist.Generator,
	archiver interfaces.IArchiver,
	db interfaces.IDatabase,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		Config:    cfg,
		Mailbox:   mailbox,
		Analysis:  facade,
		Sources:   sources,
		Publisher: pub,
		URLList:   urls,
		Archiver:  archiver,
		DB:        db,
		Logger:    log.Named("Orchestrator"),
		Errors:    helpers.NewErrorHandler(log),
		Now:       time.Now,
	}
}

// -----------------------------------------------------------------------------

// Run executes one pipeline invocation and records it in the ledger. Any error
// returned has already been logged; files published before it stay published.
func (o *Orchestrator) Run(ctx context.Context) (models.MRunRecord, error) {
	o.Errors.ResetErrorCount()

	run := models.MRunRecord{
		RunID:     uuid.NewString(),
		StartedAt: o.Now(),
		Status:    models.RunStatusRunning,
	}
	if err := o.DB.StartRun(run); err != nil {
		return run, fmt.Errorf("record run start: %w", err)
	}

	o.Logger.Info("Starting Wix traffic data processing workflow (run %s)", run.RunID)

	err := o.execute(ctx, &run)

	finished := o.Now()
	run.FinishedAt = &finished
	run.Status = models.RunStatusSucceeded
	if err != nil {
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
		o.Logger.Error("Processing failed: %v", err)
	}
	if dbErr := o.DB.FinishRun(run); dbErr != nil {
		o.Errors.Handle(dbErr, "finish run")
	}

	if err == nil {
		o.Logger.Info("Wix traffic data processing completed successfully")
	}
	return run, err
}

// -----------------------------------------------------------------------------

func (o *Orchestrator) execute(ctx context.Context, run *models.MRunRecord) error {
	// 1. Mailbox packages
	packages, err := o.collectMailPackages(ctx)
	if err != nil {
		return err
	}

	// 2. Analytics API packages
	if o.Sources != nil {
		apiPackages, err := o.collectAPIPackages(ctx)
		if err != nil {
			return err
		}
		packages = append(packages, apiPackages...)
	}

	run.Packages = len(packages)
	if len(packages) == 0 {
		o.Logger.Info("No new Wix traffic data found")
		return nil
	}

	// 3. Local artifact
	stamp := run.StartedAt
	localFile, err := o.writeReport(packages, stamp)
	if err != nil {
		return err
	}
	o.archive(ctx, localFile)

	// 4. Publish the report
	repoPath := utils.RemoteReportPath(stamp)
	rawURL, err := o.Publisher.PublishFile(ctx, localFile, repoPath, "")
	if err != nil {
		return err
	}
	uploaded := []models.MUploadRecord{{
		LocalPath:  localFile,
		RepoPath:   repoPath,
		RawURL:     rawURL,
		UploadTime: o.Now(),
	}}
	o.Logger.Info("Successfully processed %d data packages", len(packages))

	// 5. Manifest, failure does not abort the run
	manifestPath := o.Config.Repository.ManifestPath
	if o.Config.Repository.ManifestTimestamped {
		manifestPath = publisher.TimestampedPath(manifestPath, utils.FileTimestamp(stamp))
	}
	summaryURL, err := o.Publisher.PublishManifest(ctx, uploaded, manifestPath)
	if err != nil {
		o.Errors.Handle(err, "publish manifest")
	} else {
		run.ManifestURL = summaryURL
	}

	// 6. URL list
	paths := make([]string, 0, len(uploaded))
	for _, u := range uploaded {
		paths = append(paths, u.RepoPath)
	}
	listFile, err := o.URLList.GenerateURLList(ctx, paths)
	if err != nil {
		return err
	}
	o.archive(ctx, listFile)

	listRepoPath := utils.RemoteURLListPath(o.Now())
	listURL, err := o.Publisher.PublishFile(ctx, listFile, listRepoPath, "")
	if err != nil {
		o.saveUploads(run.RunID, uploaded)
		return err
	}
	o.Logger.Info("Generated URL list with %d URLs", len(paths))
	if summaryURL != "" {
		o.Logger.Info("Summary available at: %s", summaryURL)
	}

	uploaded = append(uploaded, models.MUploadRecord{
		LocalPath:  listFile,
		RepoPath:   listRepoPath,
		RawURL:     listURL,
		UploadTime: o.Now(),
	})
	o.saveUploads(run.RunID, uploaded)
	return nil
}

// -----------------------------------------------------------------------------

// collectMailPackages holds the mailbox session only while messages are read.
// Unreadable attachments are logged and skipped.
func (o *Orchestrator) collectMailPackages(ctx context.Context) ([]models.MDataPackage, error) {
	o.Logger.Info("Connecting to email account")
	session, err := o.Mailbox.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to mailbox: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			o.Errors.Handle(err, "close mailbox")
		}
	}()

	messages, err := session.Search(ctx, o.searchCriteria())
	if err != nil {
		return nil, fmt.Errorf("search mailbox: %w", err)
	}

	var packages []models.MDataPackage
	for _, msg := range messages {
		attachments, err := o.Mailbox.ExtractAttachments(msg)
		if err != nil {
			o.Errors.Handle(err, fmt.Sprintf("reading attachments of %q", msg.Subject))
			continue
		}

		for _, att := range attachments {
			pkg, err := o.Analysis.PackageAttachment(att)
			if err != nil {
				if helpers.IsExtractionError(err) {
					o.Errors.Handle(err, fmt.Sprintf("extracting %s", att.Filename))
					continue
				}
				return nil, err
			}
			packages = append(packages, pkg)
		}
	}
	return packages, nil
}

// -----------------------------------------------------------------------------

func (o *Orchestrator) collectAPIPackages(ctx context.Context) ([]models.MDataPackage, error) {
	daysBack := o.Config.Analytics.DaysBack
	results, err := o.Sources.FetchRecent(ctx, daysBack)
	if err != nil {
		return nil, err
	}

	packages := make([]models.MDataPackage, 0, len(results))
	for _, r := range results {
		packages = append(packages, o.Analysis.PackageSeries(r.Series, daysBack, o.Now()))
	}
	return packages, nil
}

// -----------------------------------------------------------------------------

func (o *Orchestrator) searchCriteria() models.MSearchCriteria {
	criteria := models.MSearchCriteria{
		Sender:  o.Config.Mailbox.Sender,
		Subject: o.Config.Mailbox.Subject,
	}
	if o.Config.Mailbox.SinceDays > 0 {
		criteria.Since = o.Now().AddDate(0, 0, -o.Config.Mailbox.SinceDays)
	}
	return criteria
}

// -----------------------------------------------------------------------------

// writeReport writes all packages as one indented JSON array. An existing
// file is never overwritten.
func (o *Orchestrator) writeReport(packages []models.MDataPackage, stamp time.Time) (string, error) {
	dir := filepath.Join(o.Config.DataDir, utils.ProcessedDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	content, err := json.MarshalIndent(packages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	target := filepath.Join(dir, utils.LocalReportName(stamp))
	if err := utils.WriteNewFile(target, content); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("report %s already exists", target)
		}
		return "", fmt.Errorf("write report: %w", err)
	}

	o.Logger.Info("Saved %d data packages to %s", len(packages), target)
	return target, nil
}

// -----------------------------------------------------------------------------

func (o *Orchestrator) archive(ctx context.Context, localPath string) {
	if o.Archiver == nil {
		return
	}
	if _, err := o.Archiver.ArchiveFile(ctx, localPath); err != nil {
		o.Errors.Handle(err, fmt.Sprintf("archiving %s", localPath))
	}
}

// -----------------------------------------------------------------------------

func (o *Orchestrator) saveUploads(runID string, uploaded []models.MUploadRecord) {
	if err := o.DB.SaveUploads(runID, uploaded); err != nil {
		o.Errors.Handle(err, "record uploads")
	}
}

package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"traffic-publisher/src/helpers"
	"traffic-publisher/src/interfaces"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"
)

const (
	DefaultRawHost = "raw.githubusercontent.com"
	DefaultSubject = "Wix traffic data"

	// CommitTimeLayout formats commit message timestamps (local time).
	CommitTimeLayout = "2006-01-02 15:04:05"
)

// Publisher performs idempotent create-or-update publishes against a remote
// file store and derives the public raw URL of every published path.
type Publisher struct {
	Store        interfaces.IFileStore
	Organization string
	RawHost      string
	Subject      string
	Logger       *logger.Logger
	Now          func() time.Time

	ownerMu sync.Mutex
	owner   string
}

// -----------------------------------------------------------------------------

func NewPublisher(store interfaces.IFileStore, organization, rawHost string, log *logger.Logger) *Publisher {
	if rawHost == "" {
		rawHost = DefaultRawHost
	}
	return &Publisher{
		Store:        store,
		Organization: organization,
		RawHost:      rawHost,
		Subject:      DefaultSubject,
		Logger:       log.Named("Publisher"),
		Now:          time.Now,
	}
}

// -----------------------------------------------------------------------------

// DeriveURL is the public raw-content URL of remotePath. It depends only on its
// arguments and the fixed publish branch.
func DeriveURL(rawHost, owner, repo, remotePath string) string {
	return fmt.Sprintf("https://%s/%s/%s/%s/%s",
		rawHost, owner, repo, models.PublishBranch, strings.TrimPrefix(remotePath, "/"))
}

// -----------------------------------------------------------------------------

// Owner is the configured organization, or else the store's authenticated
// login, looked up once per Publisher.
func (p *Publisher) Owner(ctx context.Context) (string, error) {
	if p.Organization != "" {
		return p.Organization, nil
	}

	p.ownerMu.Lock()
	defer p.ownerMu.Unlock()
	if p.owner != "" {
		return p.owner, nil
	}

	owner, err := p.Store.Owner(ctx)
	if err != nil {
		return "", err
	}
	p.owner = owner
	return owner, nil
}

// -----------------------------------------------------------------------------

// RawURL derives the public URL of remotePath for this publisher's repository.
func (p *Publisher) RawURL(ctx context.Context, remotePath string) (string, error) {
	owner, err := p.Owner(ctx)
	if err != nil {
		return "", helpers.NewPublishError(remotePath, "failed to resolve repository owner", err)
	}
	return DeriveURL(p.RawHost, owner, p.Store.RepositoryName(), remotePath), nil
}

// -----------------------------------------------------------------------------

// RepositoryLabel is "<org>/<repo>" with an organization, else the bare repository name.
func (p *Publisher) RepositoryLabel() string {
	if p.Organization != "" {
		return p.Organization + "/" + p.Store.RepositoryName()
	}
	return p.Store.RepositoryName()
}

// -----------------------------------------------------------------------------

// DefaultCommitMessage is "Automated upload of <subject> - <YYYY-MM-DD HH:MM:SS>".
func (p *Publisher) DefaultCommitMessage() string {
	return fmt.Sprintf("Automated upload of %s - %s", p.Subject, p.Now().Format(CommitTimeLayout))
}

// -----------------------------------------------------------------------------

// Publish writes content at remotePath, updating the file when it exists and
// creating it when the store reports it absent. Lookup failures other than
// not-found are returned as PublishError without attempting a create.
// An empty commitMessage selects DefaultCommitMessage.
func (p *Publisher) Publish(ctx context.Context, content []byte, remotePath, commitMessage string) (string, error) {
	if commitMessage == "" {
		commitMessage = p.DefaultCommitMessage()
	}

	// 1. Look up the current descriptor
	sha, err := p.Store.GetFileSHA(ctx, remotePath)

	// 2. Update, create, or give up
	switch {
	case err == nil:
		if err := p.Store.UpdateFile(ctx, remotePath, commitMessage, content, sha); err != nil {
			p.Logger.Error("Failed to update %s: %v", remotePath, err)
			return "", helpers.NewPublishError(remotePath, fmt.Sprintf("failed to update %s", remotePath), err)
		}
		p.Logger.Info("Updated existing file: %s", remotePath)

	case errors.Is(err, helpers.ErrFileNotFound):
		if err := p.Store.CreateFile(ctx, remotePath, commitMessage, content); err != nil {
			p.Logger.Error("Failed to create %s: %v", remotePath, err)
			return "", helpers.NewPublishError(remotePath, fmt.Sprintf("failed to create %s", remotePath), err)
		}
		p.Logger.Info("Created new file: %s", remotePath)

	default:
		p.Logger.Error("Failed to look up %s: %v", remotePath, err)
		return "", helpers.NewPublishError(remotePath, fmt.Sprintf("failed to look up %s", remotePath), err)
	}

	// 3. Derive the public URL
	return p.RawURL(ctx, remotePath)
}

// -----------------------------------------------------------------------------

// PublishFile reads localPath and publishes its content at remotePath.
func (p *Publisher) PublishFile(ctx context.Context, localPath, remotePath, commitMessage string) (string, error) {
	content, err := os.ReadFile(localPath)
	if err != nil {
		p.Logger.Error("Failed to upload file %s: %v", localPath, err)
		return "", helpers.NewPublishError(remotePath, fmt.Sprintf("failed to read %s", localPath), err)
	}
	return p.Publish(ctx, content, remotePath, commitMessage)
}

// -----------------------------------------------------------------------------

// PublishBatch publishes each mapping in order. A failing item is logged and
// left out of the result; it never stops the remaining items.
func (p *Publisher) PublishBatch(ctx context.Context, mappings []models.MFileMapping) []models.MUploadRecord {
	records := make([]models.MUploadRecord, 0, len(mappings))

	for _, m := range mappings {
		rawURL, err := p.PublishFile(ctx, m.LocalPath, m.RepoPath, "")
		if err != nil {
			p.Logger.Error("Failed to upload %s: %v", m.LocalPath, err)
			continue
		}
		records = append(records, models.MUploadRecord{
			LocalPath:  m.LocalPath,
			RepoPath:   m.RepoPath,
			RawURL:     rawURL,
			UploadTime: p.Now(),
		})
	}

	p.Logger.Info("Batch upload finished: %d/%d files published", len(records), len(mappings))
	return records
}

// -----------------------------------------------------------------------------

// BuildManifest assembles the upload summary for records.
func (p *Publisher) BuildManifest(records []models.MUploadRecord) models.MUploadSummary {
	files := records
	if files == nil {
		files = []models.MUploadRecord{}
	}
	return models.MUploadSummary{
		UploadSession: p.Now(),
		TotalFiles:    len(files),
		Files:         files,
		Repository:    p.RepositoryLabel(),
	}
}

// -----------------------------------------------------------------------------

// PublishManifest always creates manifestPath fresh (never updates) and returns
// its URL. Failures come back as ManifestPublishError; the caller decides
// whether to abort.
func (p *Publisher) PublishManifest(ctx context.Context, records []models.MUploadRecord, manifestPath string) (string, error) {
	summary := p.BuildManifest(records)

	content, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", helpers.NewManifestPublishError("failed to encode upload summary", err)
	}

	message := fmt.Sprintf("Upload summary - %s", p.Now().Format(CommitTimeLayout))
	if err := p.Store.CreateFile(ctx, manifestPath, message, content); err != nil {
		p.Logger.Error("Failed to create summary file: %v", err)
		return "", helpers.NewManifestPublishError(fmt.Sprintf("failed to create %s", manifestPath), err)
	}

	rawURL, err := p.RawURL(ctx, manifestPath)
	if err != nil {
		return "", helpers.NewManifestPublishError("failed to derive summary url", err)
	}
	p.Logger.Info("Created summary file: %s", manifestPath)
	return rawURL, nil
}

// -----------------------------------------------------------------------------

// TimestampedPath inserts "_<stamp>" before the extension of p.
func TimestampedPath(p, stamp string) string {
	ext := path.Ext(p)
	return strings.TrimSuffix(p, ext) + "_" + stamp + ext
}

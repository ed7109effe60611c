package archive

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"traffic-publisher/src/helpers"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archiver mirrors local artifacts into an S3-compatible bucket, partitioned by day.
type Archiver struct {
	mc       *minio.Client
	Bucket   string
	BasePath string
	Timeout  time.Duration
	Logger   *logger.Logger
	Now      func() time.Time
}

// -----------------------------------------------------------------------------

func NewMinIO(cfg models.MArchiveConfig, access, secret string, log *logger.Logger) (*Archiver, error) {
	if access == "" || secret == "" {
		return nil, helpers.NewConfigurationError("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when archive is enabled", nil)
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseTLS,
	})
	if err != nil {
		return nil, helpers.NewConfigurationError("invalid archive endpoint", err)
	}

	return &Archiver{
		mc:       mc,
		Bucket:   cfg.Bucket,
		BasePath: cfg.BasePath,
		Timeout:  60 * time.Second,
		Logger:   log.Named("Archive"),
		Now:      time.Now,
	}, nil
}

// -----------------------------------------------------------------------------

func (a *Archiver) EnsureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	exists, err := a.mc.BucketExists(ctx, a.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		a.Logger.Info("Creating bucket %s", a.Bucket)
		return a.mc.MakeBucket(ctx, a.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// -----------------------------------------------------------------------------

// ArchiveFile uploads localPath under today's partition and returns the object name.
func (a *Archiver) ArchiveFile(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	objectName := BuildObjectPath(a.BasePath, a.Now(), filepath.Base(localPath))

	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	_, err = a.mc.PutObject(ctx, a.Bucket, objectName, f, info.Size(), minio.PutObjectOptions{
		ContentType: ContentType(localPath),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}

	a.Logger.Info("Archived %s to %s/%s", localPath, a.Bucket, objectName)
	return objectName, nil
}

// -----------------------------------------------------------------------------

// BuildObjectPath is "<base>/year=YYYY/month=MM/day=DD/<file>" with the date in UTC.
func BuildObjectPath(basePath string, t time.Time, file string) string {
	p := fmt.Sprintf("year=%04d/month=%02d/day=%02d/%s",
		t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), file)
	if base := strings.Trim(basePath, "/"); base != "" {
		return base + "/" + p
	}
	return p
}

// ContentType guesses the MIME type from the file extension.
func ContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}

package urllist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"traffic-publisher/src/logger"
	"traffic-publisher/src/utils"
)

// URLDeriver maps a remote path to its public URL.
type URLDeriver interface {
	RawURL(ctx context.Context, remotePath string) (string, error)
}

// Generator writes the public URLs of a set of published paths to a plain
// text file, one URL per line.
type Generator struct {
	Deriver URLDeriver
	Dir     string
	Logger  *logger.Logger
	Now     func() time.Time
}

// -----------------------------------------------------------------------------

func NewGenerator(deriver URLDeriver, dataDir string, log *logger.Logger) *Generator {
	return &Generator{
		Deriver: deriver,
		Dir:     filepath.Join(dataDir, "url_lists"),
		Logger:  log.Named("URLList"),
		Now:     time.Now,
	}
}

// -----------------------------------------------------------------------------

// URLs derives the public URL of every path, preserving order.
func (g *Generator) URLs(ctx context.Context, paths []string) ([]string, error) {
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		u, err := g.Deriver.RawURL(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("derive url for %s: %w", p, err)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// -----------------------------------------------------------------------------

// GenerateURLList writes the URL list for paths and returns the local file path.
// File names carry a second-resolution timestamp and are never overwritten.
func (g *Generator) GenerateURLList(ctx context.Context, paths []string) (string, error) {
	urls, err := g.URLs(ctx, paths)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create url list directory: %w", err)
	}

	name := fmt.Sprintf("urls_%s.txt", g.Now().Format("20060102_150405"))
	target := filepath.Join(g.Dir, name)

	var b strings.Builder
	for _, u := range urls {
		b.WriteString(u)
		b.WriteByte('\n')
	}

	// O_EXCL keeps an earlier list from being clobbered within the same second.
	if err := utils.WriteNewFile(target, []byte(b.String())); err != nil {
		return "", fmt.Errorf("write url list: %w", err)
	}

	g.Logger.Info("Generated URL list with %d entries: %s", len(urls), target)
	return target, nil
}

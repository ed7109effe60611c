package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"traffic-publisher/src/helpers"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"

	gh "github.com/google/go-github/v66/github"
)

// GitHubStore publishes files through the GitHub contents API.
type GitHubStore struct {
	Client       *gh.Client
	Organization string
	Repo         string
	Timeout      time.Duration
	Logger       *logger.Logger

	ownerMu sync.Mutex
	owner   string
}

// -----------------------------------------------------------------------------

// NewGitHubStore builds an authenticated client. A missing token is a ConfigurationError.
func NewGitHubStore(cfg models.MRepositoryConfig, token string, log *logger.Logger) (*GitHubStore, error) {
	if token == "" {
		return nil, helpers.NewConfigurationError("GITHUB_TOKEN must be provided", nil)
	}
	if cfg.Name == "" {
		return nil, helpers.NewConfigurationError("repository name must be provided", nil)
	}

	client := gh.NewClient(nil).WithAuthToken(token)
	if cfg.APIBaseURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.APIBaseURL, "/") + "/")
		if err != nil {
			return nil, helpers.NewConfigurationError(fmt.Sprintf("invalid api base url '%s'", cfg.APIBaseURL), err)
		}
		client.BaseURL = base
	}

	return &GitHubStore{
		Client:       client,
		Organization: cfg.Organization,
		Repo:         cfg.Name,
		Timeout:      time.Duration(cfg.Timeout) * time.Second,
		Logger:       log.Named("GitHubStore"),
	}, nil
}

// -----------------------------------------------------------------------------

func (s *GitHubStore) RepositoryName() string {
	return s.Repo
}

// -----------------------------------------------------------------------------

func (s *GitHubStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

// -----------------------------------------------------------------------------

// Owner returns the organization when configured, otherwise the login of the
// token's user. The user lookup happens at most once per store.
func (s *GitHubStore) Owner(ctx context.Context) (string, error) {
	if s.Organization != "" {
		return s.Organization, nil
	}

	s.ownerMu.Lock()
	defer s.ownerMu.Unlock()
	if s.owner != "" {
		return s.owner, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, _, err := s.Client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to look up authenticated user: %w", err)
	}
	s.owner = user.GetLogin()
	return s.owner, nil
}

// -----------------------------------------------------------------------------

// Verify checks that the repository is reachable with the configured token.
func (s *GitHubStore) Verify(ctx context.Context) error {
	owner, err := s.Owner(ctx)
	if err != nil {
		return helpers.NewConfigurationError("failed to access repository", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, _, err := s.Client.Repositories.Get(ctx, owner, s.Repo); err != nil {
		s.Logger.Error("Failed to access repository %s/%s: %v", owner, s.Repo, err)
		return helpers.NewConfigurationError(fmt.Sprintf("failed to access repository %s/%s", owner, s.Repo), err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// GetFileSHA looks up the current blob SHA at path on the publish branch.
func (s *GitHubStore) GetFileSHA(ctx context.Context, path string) (string, error) {
	owner, err := s.Owner(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	file, _, resp, err := s.Client.Repositories.GetContents(ctx, owner, s.Repo, path, &gh.RepositoryContentGetOptions{
		Ref: models.PublishBranch,
	})
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%s: %w", path, helpers.ErrFileNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read contents of %s: %w", path, err)
	}
	if file == nil {
		return "", fmt.Errorf("%s is a directory", path)
	}
	return file.GetSHA(), nil
}

// -----------------------------------------------------------------------------

func (s *GitHubStore) CreateFile(ctx context.Context, path, message string, content []byte) error {
	return s.put(ctx, path, message, content, "")
}

// -----------------------------------------------------------------------------

func (s *GitHubStore) UpdateFile(ctx context.Context, path, message string, content []byte, sha string) error {
	if sha == "" {
		return fmt.Errorf("update of %s requires the current sha", path)
	}
	return s.put(ctx, path, message, content, sha)
}

// -----------------------------------------------------------------------------

func (s *GitHubStore) put(ctx context.Context, path, message string, content []byte, sha string) error {
	owner, err := s.Owner(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(message),
		Content: content,
		Branch:  gh.String(models.PublishBranch),
	}

	if sha == "" {
		_, _, err = s.Client.Repositories.CreateFile(ctx, owner, s.Repo, path, opts)
	} else {
		opts.SHA = gh.String(sha)
		_, _, err = s.Client.Repositories.UpdateFile(ctx, owner, s.Repo, path, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}
	return nil
}

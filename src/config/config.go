package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"traffic-publisher/src/helpers"
	"traffic-publisher/src/models"

	"github.com/joho/godotenv"
	"github.com/mcnijman/go-emailaddress"
	"gopkg.in/yaml.v3"
)

// Environment variables read once at process start.
const (
	EnvGitHubToken      = "GITHUB_TOKEN"
	EnvWixAPIKey        = "WIX_API_KEY"
	EnvWixOAuthToken    = "WIX_OAUTH_TOKEN"
	EnvEmailPassword    = "EMAIL_PASSWORD"
	EnvMinioAccessKey   = "MINIO_ACCESS_KEY"
	EnvMinioSecretKey   = "MINIO_SECRET_KEY"
	EnvRepoName         = "REPO_NAME"
	EnvRepoOrganization = "REPO_ORGANIZATION"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, helpers.NewConfigurationError(fmt.Sprintf("failed to read config file '%s'", configPath), err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, helpers.NewConfigurationError("failed to parse config from YAML", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Environment overrides and defaults
	config.applyEnvOverrides()
	config.applyDefaults()

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, helpers.NewConfigurationError("config validation failed", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(EnvRepoName)); v != "" {
		c.Repository.Name = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRepoOrganization)); v != "" {
		c.Repository.Organization = v
	}
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "traffic-publisher"
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Repository.RawHost == "" {
		c.Repository.RawHost = "raw.githubusercontent.com"
	}
	if c.Repository.ManifestPath == "" {
		c.Repository.ManifestPath = "data/upload_summary.json"
	}
	if c.Repository.Timeout <= 0 {
		c.Repository.Timeout = 30
	}
	if c.Analytics.ConfigPath == "" {
		c.Analytics.ConfigPath = "config/wix_config.json"
	}
	if c.Analytics.Timeout <= 0 {
		c.Analytics.Timeout = 30
	}
	if c.Mailbox.Port == 0 {
		c.Mailbox.Port = 993
	}
	if c.Mailbox.Folder == "" {
		c.Mailbox.Folder = "INBOX"
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "sqlite"
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		c.Storage.DBPath = "data/runs.db"
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8085
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Repository
	if c.Repository.Name == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if strings.Contains(c.Repository.Name, "/") {
		return fmt.Errorf("repository name must not contain '/': %s", c.Repository.Name)
	}

	// Mailbox
	if c.Mailbox.Host == "" {
		return fmt.Errorf("mailbox host cannot be empty")
	}
	if c.Mailbox.Username == "" {
		return fmt.Errorf("mailbox username cannot be empty")
	}
	if c.Mailbox.Port <= 0 || c.Mailbox.Port > 65535 {
		return fmt.Errorf("invalid mailbox port number: %d", c.Mailbox.Port)
	}
	if c.Mailbox.Sender != "" {
		if _, err := emailaddress.Parse(c.Mailbox.Sender); err != nil {
			return fmt.Errorf("invalid mailbox sender '%s': %w", c.Mailbox.Sender, err)
		}
	}

	// Analytics
	if c.Analytics.Enabled && c.Analytics.SiteID == "" {
		return fmt.Errorf("analytics site id cannot be empty when analytics is enabled")
	}
	if c.Analytics.DaysBack < 0 {
		return fmt.Errorf("analytics days_back cannot be negative")
	}

	// Storage
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}
	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("retention days cannot be negative: %d", c.Storage.RetentionDays)
	}

	// Archive
	if c.Archive.Enabled && (c.Archive.Endpoint == "" || c.Archive.Bucket == "") {
		return fmt.Errorf("archive endpoint and bucket are required when archive is enabled")
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d", c.Server.Port)
	}

	return nil
}

// -----------------------------------------------------------------------------

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return helpers.NewConfigurationError(fmt.Sprintf("failed to load env file '%s'", p), err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// LoadCredentials assembles all secrets from the environment in one place.
// It performs no validation; each consumer checks what it needs.
func LoadCredentials() models.MCredentials {
	return models.MCredentials{
		GitHubToken:    strings.TrimSpace(os.Getenv(EnvGitHubToken)),
		WixAPIKey:      strings.TrimSpace(os.Getenv(EnvWixAPIKey)),
		WixOAuthToken:  strings.TrimSpace(os.Getenv(EnvWixOAuthToken)),
		EmailPassword:  os.Getenv(EnvEmailPassword),
		MinioAccessKey: strings.TrimSpace(os.Getenv(EnvMinioAccessKey)),
		MinioSecretKey: strings.TrimSpace(os.Getenv(EnvMinioSecretKey)),
	}
}

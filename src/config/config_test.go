package config

import (
	"os"
	"path/filepath"
	"testing"

	"traffic-publisher/src/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
name: traffic-publisher
repository:
  name: traffic-reports
mailbox:
  host: imap.example.com
  username: reports@example.com
  sender: no-reply@wix.com
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewConfigAppliesDefaults(t *testing.T) {
	t.Setenv(EnvRepoName, "")
	t.Setenv(EnvRepoOrganization, "")

	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "raw.githubusercontent.com", cfg.Repository.RawHost)
	assert.Equal(t, "data/upload_summary.json", cfg.Repository.ManifestPath)
	assert.Equal(t, 993, cfg.Mailbox.Port)
	assert.Equal(t, "INBOX", cfg.Mailbox.Folder)
	assert.Equal(t, "sqlite", cfg.Storage.DBType)
	assert.Equal(t, "data/runs.db", cfg.Storage.DBPath)
	assert.Zero(t, cfg.Analytics.DaysBack)
}

func TestNewConfigEnvironmentOverridesRepository(t *testing.T) {
	t.Setenv(EnvRepoName, "other-repo")
	t.Setenv(EnvRepoOrganization, "acme")

	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "other-repo", cfg.Repository.Name)
	assert.Equal(t, "acme", cfg.Repository.Organization)
}

func TestNewConfigRejectsInvalid(t *testing.T) {
	t.Setenv(EnvRepoName, "")
	t.Setenv(EnvRepoOrganization, "")

	cases := map[string]string{
		"missing repository": `
mailbox: {host: imap.example.com, username: u}
`,
		"bad sender": `
repository: {name: r}
mailbox: {host: imap.example.com, username: u, sender: "not an address"}
`,
		"analytics without site": `
repository: {name: r}
mailbox: {host: imap.example.com, username: u}
analytics: {enabled: true}
`,
		"negative days back": `
repository: {name: r}
mailbox: {host: imap.example.com, username: u}
analytics: {days_back: -1}
`,
		"unknown db": `
repository: {name: r}
mailbox: {host: imap.example.com, username: u}
storage: {db_type: mongo}
`,
		"postgres without dsn": `
repository: {name: r}
mailbox: {host: imap.example.com, username: u}
storage: {db_type: postgres}
`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewConfig(writeConfig(t, body))
			require.Error(t, err)
			assert.True(t, helpers.IsConfigurationError(err))
		})
	}
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, helpers.IsConfigurationError(err))
}

func TestLoadCredentialsAndDotEnv(t *testing.T) {
	t.Setenv(EnvGitHubToken, "")
	t.Setenv(EnvWixAPIKey, " key-123 ")
	t.Setenv(EnvWixOAuthToken, "")
	os.Unsetenv(EnvGitHubToken)

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GITHUB_TOKEN=ghp_test\nWIX_API_KEY=from-file\n"), 0644))

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(t.TempDir(), "missing.env")))

	creds := LoadCredentials()
	assert.Equal(t, "ghp_test", creds.GitHubToken)
	// Existing variables win over the file.
	assert.Equal(t, "key-123", creds.WixAPIKey)
	assert.Empty(t, creds.WixOAuthToken)
}

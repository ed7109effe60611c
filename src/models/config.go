package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	LogLevel   string            `yaml:"log_level"`
	LogFile    string            `yaml:"log_file"`
	DataDir    string            `yaml:"data_dir"`
	Repository MRepositoryConfig `yaml:"repository"`
	Analytics  MAnalyticsConfig  `yaml:"analytics"`
	Mailbox    MMailboxConfig    `yaml:"mailbox"`
	Storage    MStorageConfig    `yaml:"storage"`
	Archive    MArchiveConfig    `yaml:"archive"`
	Server     MServerConfig     `yaml:"server"`
}

type MRepositoryConfig struct {
	Name                string `yaml:"name"`
	Organization        string `yaml:"organization"` // Optional, falls back to the token's user
	APIBaseURL          string `yaml:"api_base_url"` // Optional, GitHub Enterprise or tests
	RawHost             string `yaml:"raw_host"`
	ManifestPath        string `yaml:"manifest_path"`
	ManifestTimestamped bool   `yaml:"manifest_timestamped"`
	Timeout             int    `yaml:"timeout"` // seconds per API call
}

type MAnalyticsConfig struct {
	Enabled          bool     `yaml:"enabled"`
	SiteID           string   `yaml:"site_id"`
	ConfigPath       string   `yaml:"config_path"`
	BaseURL          string   `yaml:"base_url"`
	DaysBack         int      `yaml:"days_back"`
	MeasurementTypes []string `yaml:"measurement_types"`
	Timeout          int      `yaml:"timeout"`
	Proxy            string   `yaml:"proxy"`
}

type MMailboxConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Folder    string `yaml:"folder"`
	Sender    string `yaml:"sender"`
	Subject   string `yaml:"subject"`
	SinceDays int    `yaml:"since_days"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"` // 0 keeps every run
}

type MArchiveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	UseTLS   bool   `yaml:"use_tls"`
	BasePath string `yaml:"base_path"`
}

type MServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// MCredentials holds secrets taken from the environment at process start.
type MCredentials struct {
	GitHubToken    string
	WixAPIKey      string
	WixOAuthToken  string
	EmailPassword  string
	MinioAccessKey string
	MinioSecretKey string
}

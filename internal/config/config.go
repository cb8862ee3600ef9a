package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Session   SessionConfig   `yaml:"session" envconfig:"SESSION"`
	License   LicenseConfig   `yaml:"license" envconfig:"LICENSE"`
	AI        AIConfig        `yaml:"ai" envconfig:"AI"`
	WordPress WordPressConfig `yaml:"wordpress" envconfig:"WORDPRESS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"5123"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	// Generation calls block on the language-model API and need more
	// headroom than ordinary CRUD requests.
	GenerateTimeout time.Duration `yaml:"generate_timeout" envconfig:"GENERATE_TIMEOUT" default:"3m"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5123"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PathsConfig contains file system paths configuration.
// UserDataDir mirrors the desktop shell convention: when the server is
// spawned by the desktop wrapper it passes the per-user data directory
// through the environment so the database and logs land next to the
// rest of the user's application data.
type PathsConfig struct {
	UserDataDir  string `yaml:"user_data_dir" envconfig:"USER_DATA_DIR"`
	DatabaseFile string `yaml:"database_file" envconfig:"DATABASE_FILE" default:"database.sqlite"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// SessionConfig contains session lifecycle configuration
type SessionConfig struct {
	// TTL is a fixed window from login. Sliding expiry is deliberately
	// not implemented.
	TTL time.Duration `yaml:"ttl" envconfig:"TTL" default:"720h"`
}

// LicenseConfig contains license validation configuration
type LicenseConfig struct {
	SalesPlatformURL string        `yaml:"sales_platform_url" envconfig:"SALES_PLATFORM_URL" default:"https://autoblogpro.replit.app"`
	ClientVersion    string        `yaml:"client_version" envconfig:"CLIENT_VERSION" default:"1.0.0"`
	RequestTimeout   time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"30s"`
}

// AIConfig contains language-model API configuration.
// The API key itself lives in user settings, not here.
type AIConfig struct {
	BaseURL        string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://api.openai.com/v1"`
	AnalyzeModel   string        `yaml:"analyze_model" envconfig:"ANALYZE_MODEL" default:"gpt-4o-mini"`
	GenerateModel  string        `yaml:"generate_model" envconfig:"GENERATE_MODEL" default:"gpt-4o"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"2m"`
}

// WordPressConfig contains publishing transport configuration. Site
// URL and credentials live in user settings, not here.
type WordPressConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("ABP", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeout == 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Paths.UserDataDir == "" {
		envConfig.Paths.UserDataDir = fileConfig.Paths.UserDataDir
	}
	if envConfig.License.SalesPlatformURL == "" {
		envConfig.License.SalesPlatformURL = fileConfig.License.SalesPlatformURL
	}
	if envConfig.AI.BaseURL == "" {
		envConfig.AI.BaseURL = fileConfig.AI.BaseURL
	}

	return envConfig
}

// resolvePaths anchors relative paths to the user data directory,
// creating it when necessary.
func (c *Config) resolvePaths() error {
	dataDir, err := c.ResolveDataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	if !filepath.IsAbs(c.Paths.LogsDir) {
		c.Paths.LogsDir = filepath.Join(dataDir, c.Paths.LogsDir)
	}
	if err := os.MkdirAll(c.Paths.LogsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}
	if !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = filepath.Join(dataDir, c.Logging.FilePath)
	}
	return nil
}

// ResolveDataDir returns the directory holding the database and logs.
// Priority: explicit UserDataDir (set by the desktop wrapper), then the
// OS user config dir, then the executable's directory.
func (c *Config) ResolveDataDir() (string, error) {
	if c.Paths.UserDataDir != "" {
		return c.Paths.UserDataDir, nil
	}

	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "AutoBlog"), nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	return filepath.Dir(exe), nil
}

// DatabasePath returns the resolved path of the SQLite database file
func (c *Config) DatabasePath() string {
	if filepath.IsAbs(c.Paths.DatabaseFile) {
		return c.Paths.DatabaseFile
	}
	dataDir, err := c.ResolveDataDir()
	if err != nil {
		return c.Paths.DatabaseFile
	}
	return filepath.Join(dataDir, c.Paths.DatabaseFile)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	if c.License.SalesPlatformURL == "" {
		return fmt.Errorf("sales platform URL must be set")
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "stdout" {
		c.Logging.Output = "both"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5123,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			GenerateTimeout: 3 * time.Minute,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:5123"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DatabaseFile: "database.sqlite",
			LogsDir:      "logs",
		},
		Session: SessionConfig{
			TTL: 30 * 24 * time.Hour,
		},
		License: LicenseConfig{
			SalesPlatformURL: "https://autoblogpro.replit.app",
			ClientVersion:    "1.0.0",
			RequestTimeout:   30 * time.Second,
		},
		AI: AIConfig{
			BaseURL:        "https://api.openai.com/v1",
			AnalyzeModel:   "gpt-4o-mini",
			GenerateModel:  "gpt-4o",
			RequestTimeout: 2 * time.Minute,
		},
		WordPress: WordPressConfig{
			RequestTimeout: 60 * time.Second,
		},
	}
}

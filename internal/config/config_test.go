package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5123, cfg.Server.Port)
	assert.Equal(t, 30*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "https://autoblogpro.replit.app", cfg.License.SalesPlatformURL)
	assert.Equal(t, "1.0.0", cfg.License.ClientVersion)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero read timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantErr: "read timeout must be positive",
		},
		{
			name:    "zero session TTL",
			mutate:  func(c *Config) { c.Session.TTL = 0 },
			wantErr: "session TTL must be positive",
		},
		{
			name:    "missing sales platform URL",
			mutate:  func(c *Config) { c.License.SalesPlatformURL = "" },
			wantErr: "sales platform URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateNormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "syslog"

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
}

func TestDatabasePath(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Paths.UserDataDir = dir

	assert.Equal(t, filepath.Join(dir, "database.sqlite"), cfg.DatabasePath())

	abs := filepath.Join(dir, "elsewhere.sqlite")
	cfg.Paths.DatabaseFile = abs
	assert.Equal(t, abs, cfg.DatabasePath())
}

func TestResolvePathsCreatesDirectories(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Paths.UserDataDir = filepath.Join(dir, "nested", "userdata")

	require.NoError(t, cfg.resolvePaths())
	assert.DirExists(t, cfg.Paths.UserDataDir)
	assert.DirExists(t, cfg.Paths.LogsDir)
	assert.True(t, filepath.IsAbs(cfg.Logging.FilePath))
}

func TestMergeConfigsEnvWins(t *testing.T) {
	fileCfg := *Default()
	fileCfg.Server.Port = 9000
	fileCfg.Paths.UserDataDir = "/from/file"

	envCfg := *Default()
	envCfg.Server.Port = 5123
	envCfg.Paths.UserDataDir = ""

	merged := mergeConfigs(fileCfg, envCfg)
	assert.Equal(t, 5123, merged.Server.Port)
	// unset env fields fall back to the file
	assert.Equal(t, "/from/file", merged.Paths.UserDataDir)
}

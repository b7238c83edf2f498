package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("JMH_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "plugins"), cfg.PluginsDir)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultAPITimeout, cfg.APITimeout)
	assert.Equal(t, DefaultUpdateCheckInterval, cfg.UpdateCheckInterval)
	assert.Equal(t, filepath.Join(dir, "options.db"), cfg.DatabasePath())
	assert.Empty(t, cfg.EnvOverrides)
}

func TestLoadReadsEnvFileFromDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(t.TempDir())
	t.Setenv("JMH_DATA_DIR", dir)
	// Registered so t.Setenv restores them after godotenv sets them.
	t.Setenv("JMH_API_URL", "")
	t.Setenv("JMH_MULTISITE", "")
	t.Setenv("JMH_NETWORK_SITE_URL", "")
	os.Unsetenv("JMH_API_URL")
	os.Unsetenv("JMH_MULTISITE")
	os.Unsetenv("JMH_NETWORK_SITE_URL")

	env := "JMH_API_URL=http://licensing.test/\nJMH_MULTISITE=true\nJMH_NETWORK_SITE_URL=https://network.test\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://licensing.test/", cfg.APIURL)
	assert.True(t, cfg.Multisite)
	assert.Equal(t, "https://network.test", cfg.NetworkURL())
	assert.True(t, cfg.EnvOverrides["apiURL"])
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("JMH_DATA_DIR", dir)
	t.Setenv("JMH_API_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JMH_API_TIMEOUT")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DataDir:             "/tmp/x",
			APIURL:              DefaultAPIURL,
			APITimeout:          time.Second,
			UpdateCheckInterval: time.Hour,
		}
	}

	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = " " }},
		{"relative url", func(c *Config) { c.APIURL = "/licensing" }},
		{"ftp url", func(c *Config) { c.APIURL = "ftp://example.com/" }},
		{"zero timeout", func(c *Config) { c.APITimeout = 0 }},
		{"negative interval", func(c *Config) { c.UpdateCheckInterval = -time.Minute }},
		{"negative redis db", func(c *Config) { c.RedisDB = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNetworkURLFallsBackToSiteURL(t *testing.T) {
	cfg := &Config{SiteURL: "https://site.test"}
	assert.Equal(t, "https://site.test", cfg.NetworkURL())
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DefaultDataDir             = "/var/lib/jobmanager-helper"
	DefaultAPIURL              = "https://wpjobmanager.com/"
	DefaultAPITimeout          = 10 * time.Second
	DefaultListenAddr          = "127.0.0.1:7660"
	DefaultUpdateCheckInterval = 12 * time.Hour
)

// Config holds the runtime configuration of the helper.
type Config struct {
	DataDir    string
	PluginsDir string

	// Licensing server
	APIURL     string
	APITimeout time.Duration

	// Site identity sent as the "instance" of every licensing request
	SiteURL        string
	NetworkSiteURL string
	Multisite      bool

	ListenAddr          string
	UpdateCheckInterval time.Duration

	// Optional redis cache for the update-check transient
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel  string
	LogFormat string

	// Track which settings came from the environment
	EnvOverrides map[string]bool
}

// DatabasePath returns the sqlite file backing the options store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "options.db")
}

// Load reads the .env files and environment into a Config.
func Load() (*Config, error) {
	dataDir := DefaultDataDir
	if dir := os.Getenv("JMH_DATA_DIR"); dir != "" {
		dataDir = dir
	}

	// Load .env file if it exists (for deployment overrides)
	envFile := filepath.Join(dataDir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			log.Warn().Err(err).Str("file", envFile).Msg("Failed to load .env file")
		} else {
			log.Info().Str("file", envFile).Msg("Loaded .env file for deployment overrides")
		}
	}

	// Also try loading from current directory for development
	if err := godotenv.Load(); err == nil {
		log.Info().Msg("Loaded configuration from .env in current directory")
	}

	cfg := &Config{
		DataDir:             dataDir,
		PluginsDir:          filepath.Join(dataDir, "plugins"),
		APIURL:              DefaultAPIURL,
		APITimeout:          DefaultAPITimeout,
		SiteURL:             "http://localhost",
		ListenAddr:          DefaultListenAddr,
		UpdateCheckInterval: DefaultUpdateCheckInterval,
		LogLevel:            "info",
		LogFormat:           "auto",
		EnvOverrides:        make(map[string]bool),
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("JMH_PLUGINS_DIR"); v != "" {
		c.PluginsDir = v
		c.EnvOverrides["pluginsDir"] = true
	}
	if v := os.Getenv("JMH_API_URL"); v != "" {
		c.APIURL = v
		c.EnvOverrides["apiURL"] = true
	}
	if v := os.Getenv("JMH_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JMH_API_TIMEOUT %q: %w", v, err)
		}
		c.APITimeout = d
		c.EnvOverrides["apiTimeout"] = true
	}
	if v := os.Getenv("JMH_SITE_URL"); v != "" {
		c.SiteURL = v
		c.EnvOverrides["siteURL"] = true
	}
	if v := os.Getenv("JMH_NETWORK_SITE_URL"); v != "" {
		c.NetworkSiteURL = v
		c.EnvOverrides["networkSiteURL"] = true
	}
	if v := os.Getenv("JMH_MULTISITE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid JMH_MULTISITE %q: %w", v, err)
		}
		c.Multisite = b
		c.EnvOverrides["multisite"] = true
	}
	if v := os.Getenv("JMH_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
		c.EnvOverrides["listenAddr"] = true
	}
	if v := os.Getenv("JMH_UPDATE_CHECK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JMH_UPDATE_CHECK_INTERVAL %q: %w", v, err)
		}
		c.UpdateCheckInterval = d
		c.EnvOverrides["updateCheckInterval"] = true
	}
	if v := os.Getenv("JMH_REDIS_ADDR"); v != "" {
		c.RedisAddr = v
		c.EnvOverrides["redisAddr"] = true
	}
	if v := os.Getenv("JMH_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("JMH_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid JMH_REDIS_DB %q: %w", v, err)
		}
		c.RedisDB = n
		c.EnvOverrides["redisDB"] = true
	}
	if v := os.Getenv("JMH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
		c.EnvOverrides["logLevel"] = true
	}
	if v := os.Getenv("JMH_LOG_FORMAT"); v != "" {
		c.LogFormat = v
		c.EnvOverrides["logFormat"] = true
	}
	return nil
}

// NetworkURL returns the network-wide site URL, falling back to SiteURL.
func (c *Config) NetworkURL() string {
	if c.NetworkSiteURL != "" {
		return c.NetworkSiteURL
	}
	return c.SiteURL
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid licensing API URL %q", c.APIURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("licensing API URL must be http or https, got %q", u.Scheme)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API timeout must be positive, got %s", c.APITimeout)
	}
	if c.UpdateCheckInterval <= 0 {
		return fmt.Errorf("update check interval must be positive, got %s", c.UpdateCheckInterval)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("redis db must not be negative, got %d", c.RedisDB)
	}
	return nil
}

// Package config loads CLI settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ourcity/ourcity-cli/internal/logging"
)

// Environment variables read by Load.
const (
	EnvAPIURL    = "OURCITY_API_URL"
	EnvTimeout   = "OURCITY_TIMEOUT"
	EnvRetries   = "OURCITY_RETRIES"
	EnvLogLevel  = "OURCITY_LOG_LEVEL"
	EnvLogFormat = "OURCITY_LOG_FORMAT"
)

const (
	DefaultAPIURL     = "http://localhost:8000"
	APIVersion        = "v1"
	DefaultTimeout    = 30 * time.Second
	DefaultRetries    = 0
	DefaultLogLevel   = "warn"
	DefaultLogFormat  = logging.FormatText
	maxRetries        = 10
	apiPathPrefixTmpl = "/apis/%s"
)

// Config holds the settings for one CLI process.
type Config struct {
	APIURL    string
	Timeout   time.Duration
	Retries   int
	LogLevel  string
	LogFormat string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads all env vars and builds the config. Malformed numeric values
// are reported as errors rather than silently replaced by defaults.
func Load() (*Config, error) {
	cfg := &Config{
		APIURL:    getEnv(EnvAPIURL, DefaultAPIURL),
		Timeout:   DefaultTimeout,
		Retries:   DefaultRetries,
		LogLevel:  getEnv(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnv(EnvLogFormat, DefaultLogFormat),
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv(EnvRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvRetries, err)
		}
		cfg.Retries = n
	}
	return cfg, nil
}

// Validate checks that the config can be used to build a client.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid API URL %q: %w", c.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid API URL %q: scheme must be http or https", c.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid API URL %q: missing host", c.APIURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.Retries < 0 || c.Retries > maxRetries {
		return fmt.Errorf("retries must be between 0 and %d, got %d", maxRetries, c.Retries)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: must be 'text' or 'json'", c.LogFormat)
	}
	return nil
}

// Endpoint returns the versioned API root, e.g. http://localhost:8000/apis/v1.
func (c *Config) Endpoint() string {
	return strings.TrimRight(c.APIURL, "/") + fmt.Sprintf(apiPathPrefixTmpl, APIVersion)
}

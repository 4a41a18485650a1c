// Package config provides configuration structures and loading for the offer server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/karolinespohn/GenDevServer/internal/models"
)

// Config holds all configuration for the offer server.
// Values are applied in this order: defaults, config file, .env, environment, flags.
type Config struct {
	// Log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
	// Log format (json, console)
	LogFormat string `yaml:"log_format"`
	// HTTP server address
	HTTPAddr string `yaml:"http_addr"`
	// Allowed CORS origins, empty or "*" allows all
	CORSOrigins []string `yaml:"cors_origins"`
	// Upstream connect and read timeouts
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	// Upper bound for a single provider run, zero disables it
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
	// Enabled providers
	Providers []string `yaml:"providers"`

	ByteMe      ByteMeConfig      `yaml:"byteme"`
	PingPerfect PingPerfectConfig `yaml:"pingperfect"`
	ServusSpeed ServusSpeedConfig `yaml:"servusspeed"`
	VerbynDich  VerbynDichConfig  `yaml:"verbyndich"`
	WebWunder   WebWunderConfig   `yaml:"webwunder"`

	Probe ProbeConfig `yaml:"probe"`
}

// ByteMeConfig holds the ByteMe endpoint and key.
type ByteMeConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// PingPerfectConfig holds the PingPerfect endpoint and signing credentials.
type PingPerfectConfig struct {
	BaseURL         string `yaml:"base_url"`
	ClientID        string `yaml:"client_id"`
	SignatureSecret string `yaml:"signature_secret"`
}

// ServusSpeedConfig holds the ServusSpeed endpoint and basic auth credentials.
type ServusSpeedConfig struct {
	BaseURL           string `yaml:"base_url"`
	Username          string `yaml:"username"`
	Password          string `yaml:"password"`
	DetailConcurrency int    `yaml:"detail_concurrency"`
}

// VerbynDichConfig holds the VerbynDich endpoint, key and pagination cap.
type VerbynDichConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	MaxPages int    `yaml:"max_pages"`
}

// WebWunderConfig holds the WebWunder endpoint and key.
type WebWunderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// ProbeConfig holds the probe schedule and the address it searches for.
type ProbeConfig struct {
	// Cron expression or descriptor, empty disables probing
	Schedule string         `yaml:"schedule"`
	Address  models.Address `yaml:"address"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "json",
		HTTPAddr:        ":8080",
		CORSOrigins:     []string{"*"},
		ConnectTimeout:  15 * time.Second,
		ReadTimeout:     30 * time.Second,
		ProviderTimeout: 60 * time.Second,
		Providers:       []string{"byteme", "pingperfect", "servusspeed", "verbyndich", "webwunder"},
		VerbynDich: VerbynDichConfig{
			MaxPages: 100,
		},
		ServusSpeed: ServusSpeedConfig{
			DetailConcurrency: 16,
		},
		Probe: ProbeConfig{
			Address: models.Address{
				Street:  "Teststraße",
				Number:  "1",
				City:    "Wien",
				Zip:     "1010",
				Country: models.CountryAustria,
			},
		},
	}
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// LoadDotEnv loads the given .env files into the process environment.
// Missing files are ignored and variables already set are not overridden.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", name, err)
		}
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
func (c *Config) LoadFromEnv() {
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.HTTPAddr, "HTTP_ADDR")
	setList(&c.CORSOrigins, "CORS_ORIGINS")
	setDuration(&c.ConnectTimeout, "CONNECT_TIMEOUT")
	setDuration(&c.ReadTimeout, "READ_TIMEOUT")
	setDuration(&c.ProviderTimeout, "PROVIDER_TIMEOUT")
	setList(&c.Providers, "PROVIDERS")

	setString(&c.ByteMe.BaseURL, "BYTE_ME_URL")
	setString(&c.ByteMe.APIKey, "BYTE_ME_KEY")

	setString(&c.PingPerfect.BaseURL, "PING_PERFECT_URL")
	setString(&c.PingPerfect.ClientID, "PING_PERFECT_CLI_ID")
	setString(&c.PingPerfect.SignatureSecret, "PING_PERFECT_SIG_SECRET")

	setString(&c.ServusSpeed.BaseURL, "SERVUS_SPEED_URL")
	setString(&c.ServusSpeed.Username, "SERVUS_SPEED_USERNAME")
	setString(&c.ServusSpeed.Password, "SERVUS_SPEED_PASSWORD")
	setInt(&c.ServusSpeed.DetailConcurrency, "SERVUS_SPEED_DETAIL_CONCURRENCY")

	setString(&c.VerbynDich.BaseURL, "VERBYN_DICH_URL")
	setString(&c.VerbynDich.APIKey, "VERBYN_DICH_KEY")
	setInt(&c.VerbynDich.MaxPages, "VERBYN_DICH_MAX_PAGES")

	setString(&c.WebWunder.BaseURL, "WEB_WUNDER_URL")
	setString(&c.WebWunder.APIKey, "WEB_WUNDER_KEY")

	setString(&c.Probe.Schedule, "PROBE_SCHEDULE")
	setString(&c.Probe.Address.Street, "PROBE_STREET")
	setString(&c.Probe.Address.Number, "PROBE_NUMBER")
	setString(&c.Probe.Address.City, "PROBE_CITY")
	setString(&c.Probe.Address.Zip, "PROBE_ZIP")
	if v := os.Getenv("PROBE_COUNTRY"); v != "" {
		if country, err := models.ParseCountry(v); err == nil {
			c.Probe.Address.Country = country
		}
	}
}

// writeTimeoutMargin is added to ProviderTimeout for the HTTP write timeout.
const writeTimeoutMargin = 15 * time.Second

// HTTPWriteTimeout returns the server write timeout. It outlasts every
// provider run, and is zero (no limit) when runs are unbounded.
func (c *Config) HTTPWriteTimeout() time.Duration {
	if c.ProviderTimeout <= 0 {
		return 0
	}
	return c.ProviderTimeout + writeTimeoutMargin
}

// EnabledCompanies resolves the configured provider names.
func (c *Config) EnabledCompanies() ([]models.Company, error) {
	companies := make([]models.Company, 0, len(c.Providers))
	seen := make(map[models.Company]bool, len(c.Providers))
	for _, name := range c.Providers {
		if strings.TrimSpace(name) == "" {
			continue
		}
		company, err := models.ParseCompany(name)
		if err != nil {
			return nil, err
		}
		if seen[company] {
			continue
		}
		seen[company] = true
		companies = append(companies, company)
	}
	return companies, nil
}

// ProbeRequest returns the offer request used by the prober and /test-retrievers.
func (c *Config) ProbeRequest() models.OfferRequest {
	return models.OfferRequest{
		Address:        c.Probe.Address,
		ConnectionType: models.ConnectionDSL,
	}
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	if _, err := c.EnabledCompanies(); err != nil {
		return err
	}
	if c.Probe.Address.Country.ISO() == "" {
		return fmt.Errorf("invalid probe country %q", c.Probe.Address.Country)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := strings.Split(v, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	*dst = list
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			*dst = i
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			*dst = d
		}
	}
}

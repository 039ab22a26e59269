package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultReasonerTimeout bounds each call to the reasoning service.
const DefaultReasonerTimeout = 8 * time.Second

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Reasoner  ReasonerConfig  `yaml:"reasoner"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Journal   JournalConfig   `yaml:"journal"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// ReasonerConfig points at the optional reasoning service. An empty URL means
// adaptation plans always come from the rule-based fallback.
type ReasonerConfig struct {
	URL     string        `yaml:"url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type JournalConfig struct {
	Path string `yaml:"path"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config for the HTTP server from a YAML file, then applies environment
// variable overrides. Env vars use the prefix PACEGUARD_ and underscore-separated paths:
//
//	PACEGUARD_SERVER_HOST, PACEGUARD_SERVER_PORT,
//	PACEGUARD_DB_HOST, PACEGUARD_DB_PORT, PACEGUARD_DB_NAME,
//	PACEGUARD_DB_USER, PACEGUARD_DB_PASSWORD, PACEGUARD_DB_SSLMODE,
//	PACEGUARD_REASONER_URL, PACEGUARD_REASONER_MODEL, PACEGUARD_REASONER_TIMEOUT,
//	PACEGUARD_TAILSCALE_ENABLED, PACEGUARD_TAILSCALE_HOSTNAME, PACEGUARD_TAILSCALE_STATE_DIR,
//	PACEGUARD_JOURNAL_PATH
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadTool is Load for the standalone tools, which need neither a listener nor
// a database. An empty path yields defaults plus env overrides.
func LoadTool(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		if cfg, err = read(path); err != nil {
			return nil, err
		}
	} else {
		applyEnvOverrides(cfg)
		applyDefaults(cfg)
	}
	if err := cfg.validateTool(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Reasoner.Timeout == 0 {
		cfg.Reasoner.Timeout = DefaultReasonerTimeout
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "paceguard"
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "paceguard-journal.db"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PACEGUARD_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PACEGUARD_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PACEGUARD_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PACEGUARD_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PACEGUARD_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("PACEGUARD_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PACEGUARD_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("PACEGUARD_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("PACEGUARD_REASONER_URL"); v != "" {
		cfg.Reasoner.URL = v
	}
	if v := os.Getenv("PACEGUARD_REASONER_MODEL"); v != "" {
		cfg.Reasoner.Model = v
	}
	if v := os.Getenv("PACEGUARD_REASONER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Reasoner.Timeout = d
		}
	}
	if v := os.Getenv("PACEGUARD_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("PACEGUARD_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("PACEGUARD_TAILSCALE_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
	if v := os.Getenv("PACEGUARD_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	return c.validateTool()
}

func (c *Config) validateTool() error {
	if c.Reasoner.Timeout < 0 {
		return fmt.Errorf("reasoner.timeout must be positive, got %s", c.Reasoner.Timeout)
	}
	if c.Reasoner.URL != "" {
		u, err := url.Parse(c.Reasoner.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("reasoner.url %q is not an absolute URL", c.Reasoner.URL)
		}
	}
	return nil
}

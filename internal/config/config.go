package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// Placeholder secrets used by LoadConfig defaults; Validate rejects them
	// outside development.
	insecureJWTSecret     = "supersecretkey"
	insecureSessionSecret = "insecure-session-secret"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	Env           string        `yaml:"env"`
	SiteOwner     string        `yaml:"site_owner"`
	DatabasePath  string        `yaml:"database_path"`
	APITimeout    time.Duration `yaml:"timeout"`
	SessionSecret string        `yaml:"session_secret"`
	SessionMaxAge time.Duration `yaml:"session_max_age"`
	CSRFKey       string        `yaml:"csrf_key"`
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenDuration time.Duration `yaml:"token_duration"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
	Mail          MailConfig    `yaml:"mail"`
	WorkerCount   int           `yaml:"worker_count"`
	Contact       ContactConfig `yaml:"contact"`
}

// MailConfig describes the SMTP relay used for contact notifications. An
// empty Host logs notifications instead of sending them.
type MailConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	TLSPolicy string `yaml:"tls_policy"`
}

// ContactConfig limits contact form submissions per client IP: one token every
// Interval, with up to Burst submissions at once.
type ContactConfig struct {
	Interval time.Duration `yaml:"interval"`
	Burst    int           `yaml:"burst"`
}

// LoadConfig builds the configuration from defaults, an optional .env file in
// the working directory, PORTFOLIO_* environment variables and finally the
// YAML file at path (if any).
func LoadConfig(path string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg := &Config{
		Addr:          getEnv("PORTFOLIO_ADDR", ":8080"),
		Env:           getEnv("PORTFOLIO_ENV", EnvProduction),
		SiteOwner:     getEnv("PORTFOLIO_SITE_OWNER", "Odedoyin Akindele"),
		DatabasePath:  getEnv("PORTFOLIO_DATABASE_PATH", "portfolio.db"),
		APITimeout:    15 * time.Second,
		SessionSecret: getEnv("PORTFOLIO_SESSION_SECRET", insecureSessionSecret),
		SessionMaxAge: 14 * 24 * time.Hour,
		CSRFKey:       getEnv("PORTFOLIO_CSRF_KEY", ""),
		JWTSecret:     getEnv("PORTFOLIO_JWT_SECRET", insecureJWTSecret),
		TokenDuration: 1 * time.Hour,
		LogLevel:      getEnv("PORTFOLIO_LOG_LEVEL", "info"),
		LogFormat:     getEnv("PORTFOLIO_LOG_FORMAT", "json"),
		Mail: MailConfig{
			Host:      getEnv("PORTFOLIO_MAIL_HOST", ""),
			Port:      587,
			Username:  getEnv("PORTFOLIO_MAIL_USERNAME", ""),
			Password:  getEnv("PORTFOLIO_MAIL_PASSWORD", ""),
			From:      getEnv("PORTFOLIO_MAIL_FROM", ""),
			To:        getEnv("PORTFOLIO_MAIL_TO", ""),
			TLSPolicy: getEnv("PORTFOLIO_MAIL_TLS_POLICY", "mandatory"),
		},
		WorkerCount: 2,
		Contact: ContactConfig{
			Interval: 20 * time.Second,
			Burst:    3,
		},
	}

	var err error
	if cfg.APITimeout, err = getEnvDuration("PORTFOLIO_TIMEOUT", cfg.APITimeout); err != nil {
		return nil, err
	}
	if cfg.SessionMaxAge, err = getEnvDuration("PORTFOLIO_SESSION_MAX_AGE", cfg.SessionMaxAge); err != nil {
		return nil, err
	}
	if cfg.TokenDuration, err = getEnvDuration("PORTFOLIO_TOKEN_DURATION", cfg.TokenDuration); err != nil {
		return nil, err
	}
	if cfg.Contact.Interval, err = getEnvDuration("PORTFOLIO_CONTACT_INTERVAL", cfg.Contact.Interval); err != nil {
		return nil, err
	}
	if cfg.Mail.Port, err = getEnvInt("PORTFOLIO_MAIL_PORT", cfg.Mail.Port); err != nil {
		return nil, err
	}
	if cfg.WorkerCount, err = getEnvInt("PORTFOLIO_WORKER_COUNT", cfg.WorkerCount); err != nil {
		return nil, err
	}
	if cfg.Contact.Burst, err = getEnvInt("PORTFOLIO_CONTACT_BURST", cfg.Contact.Burst); err != nil {
		return nil, err
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, EnvDevelopment)
}

// Validate fills zero values with defaults and rejects settings that are only
// acceptable on a developer machine.
func (c *Config) Validate() error {
	if c.Env == "" {
		c.Env = getEnv("PORTFOLIO_ENV", EnvProduction)
	}
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.SiteOwner == "" {
		c.SiteOwner = "Odedoyin Akindele"
	}
	if c.DatabasePath == "" {
		return errors.New("database_path is required")
	}
	if c.APITimeout <= 0 {
		c.APITimeout = 15 * time.Second
	}
	if c.SessionMaxAge <= 0 {
		c.SessionMaxAge = 14 * 24 * time.Hour
	}
	if c.TokenDuration <= 0 {
		c.TokenDuration = time.Hour
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 2
	}
	if c.Contact.Interval <= 0 {
		c.Contact.Interval = 20 * time.Second
	}
	if c.Contact.Burst <= 0 {
		c.Contact.Burst = 3
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}
	if c.Mail.TLSPolicy == "" {
		c.Mail.TLSPolicy = "mandatory"
	}
	switch strings.ToLower(c.Mail.TLSPolicy) {
	case "mandatory", "opportunistic", "none":
	default:
		return fmt.Errorf("mail.tls_policy must be mandatory, opportunistic or none, got %q", c.Mail.TLSPolicy)
	}
	if c.Mail.Host != "" && (c.Mail.From == "" || c.Mail.To == "") {
		return errors.New("mail.from and mail.to are required when mail.host is set")
	}
	if c.CSRFKey != "" && len(c.CSRFKey) != 32 {
		return fmt.Errorf("csrf_key must be exactly 32 bytes, got %d", len(c.CSRFKey))
	}

	if c.IsDevelopment() {
		return nil
	}

	if c.JWTSecret == "" || c.JWTSecret == insecureJWTSecret {
		return errors.New("jwt_secret must be set to a non-default value outside development")
	}
	if len(c.SessionSecret) < 32 || c.SessionSecret == insecureSessionSecret {
		return errors.New("session_secret must be at least 32 bytes outside development")
	}
	if c.CSRFKey == "" {
		return errors.New("csrf_key is required outside development")
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

// Recipients splits the comma separated To address list.
func (m MailConfig) Recipients() []string {
	var out []string
	for _, addr := range strings.Split(m.To, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

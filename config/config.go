// Package config loads the standalone server configuration from YAML with
// INVOICER_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/extension"
	"github.com/xraph/invoicer/input"
	"github.com/xraph/invoicer/internal/logger"
	"github.com/xraph/invoicer/types"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        logger.Config    `yaml:"log"`
	Issuer     document.Issuer  `yaml:"issuer"`
	Letterhead LetterheadConfig `yaml:"letterhead"`
	Document   DocumentConfig   `yaml:"document"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	Export     ExportConfig     `yaml:"export"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
	RateLimit    int           `yaml:"rate_limit"` // requests per window per client IP; 0 disables
	RateWindow   time.Duration `yaml:"rate_window"`
	MaxUpload    int64         `yaml:"max_upload"` // bytes accepted for an export raster
}

// LetterheadConfig is the page background: a PNG/JPEG file for native PDFs
// and a URL for the HTML page.
type LetterheadConfig struct {
	Image string `yaml:"image"`
	URL   string `yaml:"url"`
}

type DocumentConfig struct {
	Kind         string      `yaml:"kind"`
	Unit         string      `yaml:"unit"`
	TaxRate      input.Value `yaml:"tax_rate"`
	PaymentTerms string      `yaml:"payment_terms"`
	DueInDays    int         `yaml:"due_in_days"`
}

type SessionsConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepSchedule string        `yaml:"sweep_schedule"`
	Max           int           `yaml:"max"`
}

type ExportConfig struct {
	RequireComplete bool `yaml:"require_complete"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads path, applies defaults and then environment overrides. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	if _, err := document.ParseKind(cfg.Document.Kind); err != nil {
		return nil, fmt.Errorf("config: document.kind: %w", err)
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 60 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.RateWindow == 0 {
		c.Server.RateWindow = time.Minute
	}
	if c.Server.MaxUpload == 0 {
		c.Server.MaxUpload = 20 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	d := document.DefaultDefaults()
	if c.Document.Kind == "" {
		c.Document.Kind = string(d.Kind)
	}
	if c.Document.Unit == "" {
		c.Document.Unit = d.Unit
	}
	if c.Document.TaxRate == "" {
		c.Document.TaxRate = input.Value(d.TaxRate.String())
	}
	if c.Document.PaymentTerms == "" {
		c.Document.PaymentTerms = d.PaymentTerms
	}
	if c.Document.DueInDays == 0 {
		c.Document.DueInDays = d.DueInDays
	}

	if c.Sessions.TTL == 0 {
		c.Sessions.TTL = 2 * time.Hour
	}
	if c.Sessions.SweepSchedule == "" {
		c.Sessions.SweepSchedule = "@every 1m"
	}
}

// applyEnv overrides file values with INVOICER_* variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("INVOICER_LOG_LEVEL", &c.Log.Level)
	str("INVOICER_LOG_FORMAT", &c.Log.Format)
	str("INVOICER_ISSUER_NAME", &c.Issuer.Name)
	str("INVOICER_ISSUER_COMPANY", &c.Issuer.Company)
	str("INVOICER_LETTERHEAD_IMAGE", &c.Letterhead.Image)
	str("INVOICER_LETTERHEAD_URL", &c.Letterhead.URL)
	str("INVOICER_SWEEP_SCHEDULE", &c.Sessions.SweepSchedule)

	if v := getenv("INVOICER_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.CORSOrigins = append(c.Server.CORSOrigins, o)
			}
		}
	}

	if v := getenv("INVOICER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: INVOICER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("INVOICER_MAX_SESSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: INVOICER_MAX_SESSIONS: %w", err)
		}
		c.Sessions.Max = n
	}
	if v := getenv("INVOICER_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: INVOICER_SESSION_TTL: %w", err)
		}
		c.Sessions.TTL = d
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Server.Port) }

// Defaults returns the record defaults new sessions are seeded with.
func (c *Config) Defaults() document.Defaults {
	kind, err := document.ParseKind(c.Document.Kind)
	if err != nil {
		kind = document.KindInvoice
	}
	return document.Defaults{
		Kind:         kind,
		Unit:         c.Document.Unit,
		TaxRate:      c.Document.TaxRate.Percent(),
		PaymentTerms: c.Document.PaymentTerms,
		DueInDays:    c.Document.DueInDays,
		Currency:     types.Naira,
	}
}

// Engine maps the engine-related settings onto the extension config so the
// standalone server and the Forge extension build engines the same way.
func (c *Config) Engine() extension.Config {
	return extension.MergeWithDefaults(extension.Config{
		IssuerName:      c.Issuer.Name,
		IssuerCompany:   c.Issuer.Company,
		SessionTTL:      c.Sessions.TTL,
		SweepSchedule:   c.Sessions.SweepSchedule,
		MaxSessions:     c.Sessions.Max,
		RequireComplete: c.Export.RequireComplete,
	})
}

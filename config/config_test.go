package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/invoicer/document"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  cors_origins: ["http://localhost:3000"]
  rate_limit: 50
log:
  level: debug
  format: json
issuer:
  name: Ada Obi
  company: Obi Works Ltd
document:
  kind: quotation
  tax_rate: 5
  due_in_days: 14
sessions:
  ttl: 30m
  max: 10
export:
  require_complete: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Addr() != ":9090" {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.RateLimit != 50 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Issuer.Name != "Ada Obi" {
		t.Errorf("issuer = %+v", cfg.Issuer)
	}
	if cfg.Sessions.TTL != 30*time.Minute || cfg.Sessions.Max != 10 {
		t.Errorf("sessions = %+v", cfg.Sessions)
	}

	d := cfg.Defaults()
	if d.Kind != document.KindQuotation || !d.TaxRate.Equal(decimal.NewFromInt(5)) || d.DueInDays != 14 {
		t.Errorf("defaults = %+v", d)
	}
	if d.Unit != "pc" || d.PaymentTerms != document.TermsDueOnReceipt {
		t.Errorf("unset document fields not defaulted: %+v", d)
	}

	eng := cfg.Engine()
	if !eng.RequireComplete || eng.MaxSessions != 10 || eng.IssuerCompany != "Obi Works Ltd" {
		t.Errorf("engine config = %+v", eng)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Sessions.TTL != 2*time.Hour || cfg.Sessions.SweepSchedule != "@every 1m" {
		t.Errorf("sessions = %+v", cfg.Sessions)
	}
	if got := cfg.Defaults().TaxRate; !got.Equal(decimal.RequireFromString("7.5")) {
		t.Errorf("tax rate = %s", got)
	}
	if cfg.Server.MaxUpload != 20<<20 {
		t.Errorf("max upload = %d", cfg.Server.MaxUpload)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "server: [port"},
		{"bad kind", "document:\n  kind: receipt\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"INVOICER_PORT":         "7070",
		"INVOICER_ISSUER_NAME":  "Env Name",
		"INVOICER_SESSION_TTL":  "15m",
		"INVOICER_CORS_ORIGINS": "http://a.test, http://b.test,",
		"INVOICER_MAX_SESSIONS": "3",
	}
	cfg := &Config{Issuer: document.Issuer{Name: "File Name"}}
	if err := cfg.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 7070 || cfg.Issuer.Name != "Env Name" || cfg.Sessions.TTL != 15*time.Minute || cfg.Sessions.Max != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.test" {
		t.Errorf("origins = %v", cfg.Server.CORSOrigins)
	}

	bad := &Config{}
	if err := bad.applyEnv(func(k string) string {
		if k == "INVOICER_PORT" {
			return "eighty"
		}
		return ""
	}); err == nil {
		t.Error("expected error for non-numeric port")
	}
}

package extension

import "time"

// Config holds the invoicer extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.invoicer" or "invoicer" keys).
type Config struct {
	// IssuerName is the signer printed under the signature.
	IssuerName string `json:"issuer_name" mapstructure:"issuer_name" yaml:"issuer_name"`

	// IssuerCompany is printed under the signer name.
	IssuerCompany string `json:"issuer_company" mapstructure:"issuer_company" yaml:"issuer_company"`

	// SessionTTL is how long a session may sit unedited before it is
	// closed (default: 2h). A negative value disables expiry.
	SessionTTL time.Duration `json:"session_ttl" mapstructure:"session_ttl" yaml:"session_ttl"`

	// SweepSchedule is the cron schedule of the idle sweeper (default: "@every 1m").
	SweepSchedule string `json:"sweep_schedule" mapstructure:"sweep_schedule" yaml:"sweep_schedule"`

	// MaxSessions caps concurrently open sessions (default: 0, no cap).
	MaxSessions int `json:"max_sessions" mapstructure:"max_sessions" yaml:"max_sessions"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RequireComplete rejects exports while the client name is empty.
	RequireComplete bool `json:"require_complete" mapstructure:"require_complete" yaml:"require_complete"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SessionTTL:    2 * time.Hour,
		SweepSchedule: "@every 1m",
		PluginTimeout: 5 * time.Second,
	}
}

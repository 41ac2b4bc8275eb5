package extension

import (
	"time"

	"github.com/xraph/invoicer"
	"github.com/xraph/invoicer/plugin"
	"github.com/xraph/invoicer/store"
)

// Option configures the invoicer Forge extension.
type Option func(*Extension)

// WithStore sets the session store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes an invoicer.Option through to the underlying engine.
func WithEngineOption(opt invoicer.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers an invoicer plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, invoicer.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithIssuer sets the signer name and company printed on documents.
func WithIssuer(name, company string) Option {
	return func(e *Extension) {
		e.config.IssuerName = name
		e.config.IssuerCompany = company
	}
}

// WithSessionTTL sets the idle session lifetime.
func WithSessionTTL(d time.Duration) Option {
	return func(e *Extension) { e.config.SessionTTL = d }
}

// WithSweepSchedule sets the cron schedule of the idle sweeper.
func WithSweepSchedule(schedule string) Option {
	return func(e *Extension) { e.config.SweepSchedule = schedule }
}

// WithMaxSessions caps concurrently open sessions.
func WithMaxSessions(n int) Option {
	return func(e *Extension) { e.config.MaxSessions = n }
}

// WithRequireComplete rejects exports while required fields are empty.
func WithRequireComplete() Option {
	return func(e *Extension) { e.config.RequireComplete = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

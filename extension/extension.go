// Package extension provides the Forge extension adapter for invoicer.
//
// It implements the forge.Extension interface to integrate the invoicer
// engine into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.invoicer" or "invoicer" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/invoicer"
	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/store"
	"github.com/xraph/invoicer/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "invoicer"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Invoice and quotation builder"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the invoicer engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *invoicer.Engine
	store      store.Store
	engineOpts []invoicer.Option
}

// New creates a new invoicer Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *invoicer.Engine { return e.engine }

// Config returns the resolved configuration.
func (e *Extension) Config() Config { return e.config }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	e.engine = invoicer.New(e.store, BuildEngineOptions(e.config, e.engineOpts...)...)

	return vessel.Provide(fapp.Container(), func() (*invoicer.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("invoicer: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("invoicer: store not initialized")
	}
	return e.store.Ping(ctx)
}

// BuildEngineOptions turns a resolved config into engine options, followed
// by any pass-through options.
func BuildEngineOptions(cfg Config, extra ...invoicer.Option) []invoicer.Option {
	opts := make([]invoicer.Option, 0, len(extra)+6)

	if cfg.IssuerName != "" || cfg.IssuerCompany != "" {
		opts = append(opts, invoicer.WithIssuer(document.Issuer{
			Name:    cfg.IssuerName,
			Company: cfg.IssuerCompany,
		}))
	}

	ttl := cfg.SessionTTL
	if ttl < 0 {
		ttl = 0
	}
	opts = append(opts,
		invoicer.WithSessionTTL(ttl),
		invoicer.WithSweepSchedule(cfg.SweepSchedule),
		invoicer.WithMaxSessions(cfg.MaxSessions),
		invoicer.WithRequireComplete(cfg.RequireComplete),
	)
	if cfg.PluginTimeout > 0 {
		opts = append(opts, invoicer.WithPluginTimeout(cfg.PluginTimeout))
	}

	// Append any pass-through engine options.
	return append(opts, extra...)
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("invoicer: configuration is required but not found in config files; " +
				"ensure 'extensions.invoicer' or 'invoicer' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = MergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = MergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("invoicer: configuration loaded",
		forge.F("issuer_name", e.config.IssuerName),
		forge.F("session_ttl", e.config.SessionTTL),
		forge.F("sweep_schedule", e.config.SweepSchedule),
		forge.F("max_sessions", e.config.MaxSessions),
		forge.F("require_complete", e.config.RequireComplete),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.invoicer", "invoicer"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("invoicer: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("invoicer: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// MergeWithDefaults fills zero-valued fields with defaults.
func MergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = defaults.SessionTTL
	}
	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = defaults.SweepSchedule
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// MergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func MergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.RequireComplete {
		yamlConfig.RequireComplete = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.IssuerName == "" {
		yamlConfig.IssuerName = programmaticConfig.IssuerName
	}
	if yamlConfig.IssuerCompany == "" {
		yamlConfig.IssuerCompany = programmaticConfig.IssuerCompany
	}
	if yamlConfig.SweepSchedule == "" {
		yamlConfig.SweepSchedule = programmaticConfig.SweepSchedule
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.SessionTTL == 0 {
		yamlConfig.SessionTTL = programmaticConfig.SessionTTL
	}
	if yamlConfig.MaxSessions == 0 {
		yamlConfig.MaxSessions = programmaticConfig.MaxSessions
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	// Fill remaining zeros with defaults.
	return MergeWithDefaults(yamlConfig)
}

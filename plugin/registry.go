package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/id"
)

// DefaultTimeout bounds a single plugin call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onSessionOpened      []OnSessionOpened
	onSessionClosed      []OnSessionClosed
	onDocumentChanged    []OnDocumentChanged
	onKindChanged        []OnKindChanged
	onItemAdded          []OnItemAdded
	onItemRemoved        []OnItemRemoved
	onTotalsRecalculated []OnTotalsRecalculated
	onExportCompleted    []OnExportCompleted
	onExportFailed       []OnExportFailed
	formatters           map[string]DocumentFormatter
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:     slog.Default(),
		timeout:    DefaultTimeout,
		formatters: make(map[string]DocumentFormatter),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call plugin timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnSessionOpened); ok {
		r.onSessionOpened = append(r.onSessionOpened, v)
	}
	if v, ok := p.(OnSessionClosed); ok {
		r.onSessionClosed = append(r.onSessionClosed, v)
	}
	if v, ok := p.(OnDocumentChanged); ok {
		r.onDocumentChanged = append(r.onDocumentChanged, v)
	}
	if v, ok := p.(OnKindChanged); ok {
		r.onKindChanged = append(r.onKindChanged, v)
	}
	if v, ok := p.(OnItemAdded); ok {
		r.onItemAdded = append(r.onItemAdded, v)
	}
	if v, ok := p.(OnItemRemoved); ok {
		r.onItemRemoved = append(r.onItemRemoved, v)
	}
	if v, ok := p.(OnTotalsRecalculated); ok {
		r.onTotalsRecalculated = append(r.onTotalsRecalculated, v)
	}
	if v, ok := p.(OnExportCompleted); ok {
		r.onExportCompleted = append(r.onExportCompleted, v)
	}
	if v, ok := p.(OnExportFailed); ok {
		r.onExportFailed = append(r.onExportFailed, v)
	}
	if v, ok := p.(DocumentFormatter); ok {
		r.formatters[v.Format()] = v
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	typ  reflect.Type
	name string
}{
	{reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit"},
	{reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown"},
	{reflect.TypeOf((*OnSessionOpened)(nil)).Elem(), "OnSessionOpened"},
	{reflect.TypeOf((*OnSessionClosed)(nil)).Elem(), "OnSessionClosed"},
	{reflect.TypeOf((*OnDocumentChanged)(nil)).Elem(), "OnDocumentChanged"},
	{reflect.TypeOf((*OnKindChanged)(nil)).Elem(), "OnKindChanged"},
	{reflect.TypeOf((*OnItemAdded)(nil)).Elem(), "OnItemAdded"},
	{reflect.TypeOf((*OnItemRemoved)(nil)).Elem(), "OnItemRemoved"},
	{reflect.TypeOf((*OnTotalsRecalculated)(nil)).Elem(), "OnTotalsRecalculated"},
	{reflect.TypeOf((*OnExportCompleted)(nil)).Elem(), "OnExportCompleted"},
	{reflect.TypeOf((*OnExportFailed)(nil)).Elem(), "OnExportFailed"},
	{reflect.TypeOf((*DocumentFormatter)(nil)).Elem(), "DocumentFormatter"},
}

// implementedInterfaces returns the hook names implemented by the plugin.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			interfaces = append(interfaces, h.name)
		}
	}
	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Formatter returns the formatter registered for format, or nil.
func (r *Registry) Formatter(format string) DocumentFormatter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.formatters[format]
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.formatters))
	for f := range r.formatters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnInit", func() error {
			return p.OnInit(ctx, engine)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnShutdown", func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitSessionOpened emits a session opened event.
func (r *Registry) EmitSessionOpened(ctx context.Context, sessionID id.SessionID, rec document.Record) {
	r.mu.RLock()
	plugins := r.onSessionOpened
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnSessionOpened", func() error {
			return p.OnSessionOpened(ctx, sessionID, rec)
		})
	}
}

// EmitSessionClosed emits a session closed event.
func (r *Registry) EmitSessionClosed(ctx context.Context, sessionID id.SessionID, reason string) {
	r.mu.RLock()
	plugins := r.onSessionClosed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnSessionClosed", func() error {
			return p.OnSessionClosed(ctx, sessionID, reason)
		})
	}
}

// EmitDocumentChanged emits a document changed event.
func (r *Registry) EmitDocumentChanged(ctx context.Context, sessionID id.SessionID, fields []string, rec document.Record) {
	r.mu.RLock()
	plugins := r.onDocumentChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnDocumentChanged", func() error {
			return p.OnDocumentChanged(ctx, sessionID, fields, rec)
		})
	}
}

// EmitKindChanged emits a kind changed event.
func (r *Registry) EmitKindChanged(ctx context.Context, sessionID id.SessionID, from, to document.Kind, number string) {
	r.mu.RLock()
	plugins := r.onKindChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnKindChanged", func() error {
			return p.OnKindChanged(ctx, sessionID, from, to, number)
		})
	}
}

// EmitItemAdded emits an item added event.
func (r *Registry) EmitItemAdded(ctx context.Context, sessionID id.SessionID, item document.LineItem) {
	r.mu.RLock()
	plugins := r.onItemAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnItemAdded", func() error {
			return p.OnItemAdded(ctx, sessionID, item)
		})
	}
}

// EmitItemRemoved emits an item removed event.
func (r *Registry) EmitItemRemoved(ctx context.Context, sessionID id.SessionID, itemID document.ItemID) {
	r.mu.RLock()
	plugins := r.onItemRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnItemRemoved", func() error {
			return p.OnItemRemoved(ctx, sessionID, itemID)
		})
	}
}

// EmitTotalsRecalculated emits a totals recalculated event.
func (r *Registry) EmitTotalsRecalculated(ctx context.Context, sessionID id.SessionID, view document.View) {
	r.mu.RLock()
	plugins := r.onTotalsRecalculated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnTotalsRecalculated", func() error {
			return p.OnTotalsRecalculated(ctx, sessionID, view)
		})
	}
}

// EmitExportCompleted emits an export completed event.
func (r *Registry) EmitExportCompleted(ctx context.Context, sessionID id.SessionID, exportID id.ExportID, filename string, pages int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onExportCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnExportCompleted", func() error {
			return p.OnExportCompleted(ctx, sessionID, exportID, filename, pages, elapsed)
		})
	}
}

// EmitExportFailed emits an export failed event.
func (r *Registry) EmitExportFailed(ctx context.Context, sessionID id.SessionID, exportErr error) {
	r.mu.RLock()
	plugins := r.onExportFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnExportFailed", func() error {
			return p.OnExportFailed(ctx, sessionID, exportErr)
		})
	}
}

// dispatch runs one hook and logs a failure. Hook errors never reach the
// caller.
func (r *Registry) dispatch(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block an editing session.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Package observability provides a metrics extension for invoicer that
// records session, editing and export event counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnSessionOpened      = (*MetricsExtension)(nil)
	_ plugin.OnSessionClosed      = (*MetricsExtension)(nil)
	_ plugin.OnDocumentChanged    = (*MetricsExtension)(nil)
	_ plugin.OnKindChanged        = (*MetricsExtension)(nil)
	_ plugin.OnItemAdded          = (*MetricsExtension)(nil)
	_ plugin.OnItemRemoved        = (*MetricsExtension)(nil)
	_ plugin.OnTotalsRecalculated = (*MetricsExtension)(nil)
	_ plugin.OnExportCompleted    = (*MetricsExtension)(nil)
	_ plugin.OnExportFailed       = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an invoicer plugin to track editing and export activity.
type MetricsExtension struct {
	factory MetricFactory

	// Session metrics
	SessionOpened  Counter
	SessionClosed  Counter
	SessionExpired Counter

	// Editing metrics
	FieldsChanged      Counter
	KindChanged        Counter
	ItemAdded          Counter
	ItemRemoved        Counter
	TotalsRecalculated Counter
	DocumentTotal      Histogram
	DocumentItems      Histogram

	// Export metrics
	ExportCompleted Counter
	ExportFailed    Counter
	ExportPages     Histogram
	ExportLatency   Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions, or NewPrometheusFactory standalone.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Session metrics
		SessionOpened:  factory.Counter("invoicer.session.opened"),
		SessionClosed:  factory.Counter("invoicer.session.closed"),
		SessionExpired: factory.Counter("invoicer.session.expired"),

		// Editing metrics
		FieldsChanged:      factory.Counter("invoicer.document.fields.changed"),
		KindChanged:        factory.Counter("invoicer.document.kind.changed"),
		ItemAdded:          factory.Counter("invoicer.item.added"),
		ItemRemoved:        factory.Counter("invoicer.item.removed"),
		TotalsRecalculated: factory.Counter("invoicer.totals.recalculated"),
		DocumentTotal:      factory.Histogram("invoicer.document.total_amount"),
		DocumentItems:      factory.Histogram("invoicer.document.items"),

		// Export metrics
		ExportCompleted: factory.Counter("invoicer.export.completed"),
		ExportFailed:    factory.Counter("invoicer.export.failed"),
		ExportPages:     factory.Histogram("invoicer.export.pages"),
		ExportLatency:   factory.Histogram("invoicer.export.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Session hooks
// ──────────────────────────────────────────────────

// OnSessionOpened implements plugin.OnSessionOpened.
func (m *MetricsExtension) OnSessionOpened(_ context.Context, _ id.SessionID, _ document.Record) error {
	m.SessionOpened.Inc()
	return nil
}

// OnSessionClosed implements plugin.OnSessionClosed.
func (m *MetricsExtension) OnSessionClosed(_ context.Context, _ id.SessionID, reason string) error {
	if reason == "expired" {
		m.SessionExpired.Inc()
		return nil
	}
	m.SessionClosed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Editing hooks
// ──────────────────────────────────────────────────

// OnDocumentChanged implements plugin.OnDocumentChanged.
func (m *MetricsExtension) OnDocumentChanged(_ context.Context, _ id.SessionID, fields []string, _ document.Record) error {
	m.FieldsChanged.Add(float64(len(fields)))
	return nil
}

// OnKindChanged implements plugin.OnKindChanged.
func (m *MetricsExtension) OnKindChanged(_ context.Context, _ id.SessionID, _, _ document.Kind, _ string) error {
	m.KindChanged.Inc()
	return nil
}

// OnItemAdded implements plugin.OnItemAdded.
func (m *MetricsExtension) OnItemAdded(_ context.Context, _ id.SessionID, _ document.LineItem) error {
	m.ItemAdded.Inc()
	return nil
}

// OnItemRemoved implements plugin.OnItemRemoved.
func (m *MetricsExtension) OnItemRemoved(_ context.Context, _ id.SessionID, _ document.ItemID) error {
	m.ItemRemoved.Inc()
	return nil
}

// OnTotalsRecalculated implements plugin.OnTotalsRecalculated.
func (m *MetricsExtension) OnTotalsRecalculated(_ context.Context, _ id.SessionID, view document.View) error {
	m.TotalsRecalculated.Inc()
	total, _ := view.Record.Total.Decimal().Float64()
	m.DocumentTotal.Observe(total)
	m.DocumentItems.Observe(float64(len(view.Record.Items)))
	return nil
}

// ──────────────────────────────────────────────────
// Export hooks
// ──────────────────────────────────────────────────

// OnExportCompleted implements plugin.OnExportCompleted.
func (m *MetricsExtension) OnExportCompleted(_ context.Context, _ id.SessionID, _ id.ExportID, _ string, pages int, elapsed time.Duration) error {
	m.ExportCompleted.Inc()
	m.ExportPages.Observe(float64(pages))
	m.ExportLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnExportFailed implements plugin.OnExportFailed.
func (m *MetricsExtension) OnExportFailed(_ context.Context, _ id.SessionID, _ error) error {
	m.ExportFailed.Inc()
	return nil
}

// Package audithook bridges invoicer session and export events to an audit
// trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time, or use LogRecorder to write events to a slog logger.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin            = (*Extension)(nil)
	_ plugin.OnSessionOpened   = (*Extension)(nil)
	_ plugin.OnSessionClosed   = (*Extension)(nil)
	_ plugin.OnDocumentChanged = (*Extension)(nil)
	_ plugin.OnKindChanged     = (*Extension)(nil)
	_ plugin.OnItemAdded       = (*Extension)(nil)
	_ plugin.OnItemRemoved     = (*Extension)(nil)
	_ plugin.OnExportCompleted = (*Extension)(nil)
	_ plugin.OnExportFailed    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// LogRecorder writes every event to logger at info level, or warn for
// failures.
func LogRecorder(logger *slog.Logger) Recorder {
	return RecorderFunc(func(ctx context.Context, event *AuditEvent) error {
		level := slog.LevelInfo
		if event.Outcome == OutcomeFailure {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "audit",
			"action", event.Action,
			"resource", event.Resource,
			"resource_id", event.ResourceID,
			"category", event.Category,
			"outcome", event.Outcome,
			"metadata", event.Metadata,
		)
		return nil
	})
}

// Extension bridges invoicer events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Session hooks
// ──────────────────────────────────────────────────

// OnSessionOpened implements plugin.OnSessionOpened.
func (e *Extension) OnSessionOpened(ctx context.Context, sessionID id.SessionID, rec document.Record) error {
	return e.record(ctx, ActionSessionOpened, SeverityInfo, OutcomeSuccess,
		ResourceSession, sessionID.String(), CategorySession, nil,
		"kind", string(rec.Kind),
		"number", rec.Number,
	)
}

// OnSessionClosed implements plugin.OnSessionClosed.
func (e *Extension) OnSessionClosed(ctx context.Context, sessionID id.SessionID, reason string) error {
	action := ActionSessionClosed
	if reason == "expired" {
		action = ActionSessionExpired
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceSession, sessionID.String(), CategorySession, nil,
		"reason", reason,
	)
}

// ──────────────────────────────────────────────────
// Document hooks
// ──────────────────────────────────────────────────

// OnDocumentChanged implements plugin.OnDocumentChanged.
func (e *Extension) OnDocumentChanged(ctx context.Context, sessionID id.SessionID, fields []string, rec document.Record) error {
	return e.record(ctx, ActionDocumentChanged, SeverityInfo, OutcomeSuccess,
		ResourceDocument, rec.Number, CategoryEditing, nil,
		"session_id", sessionID.String(),
		"fields", fields,
	)
}

// OnKindChanged implements plugin.OnKindChanged.
func (e *Extension) OnKindChanged(ctx context.Context, sessionID id.SessionID, from, to document.Kind, number string) error {
	return e.record(ctx, ActionKindChanged, SeverityInfo, OutcomeSuccess,
		ResourceDocument, number, CategoryEditing, nil,
		"session_id", sessionID.String(),
		"from", string(from),
		"to", string(to),
	)
}

// OnItemAdded implements plugin.OnItemAdded.
func (e *Extension) OnItemAdded(ctx context.Context, sessionID id.SessionID, item document.LineItem) error {
	return e.record(ctx, ActionItemAdded, SeverityInfo, OutcomeSuccess,
		ResourceItem, string(item.ID), CategoryEditing, nil,
		"session_id", sessionID.String(),
	)
}

// OnItemRemoved implements plugin.OnItemRemoved.
func (e *Extension) OnItemRemoved(ctx context.Context, sessionID id.SessionID, itemID document.ItemID) error {
	return e.record(ctx, ActionItemRemoved, SeverityInfo, OutcomeSuccess,
		ResourceItem, string(itemID), CategoryEditing, nil,
		"session_id", sessionID.String(),
	)
}

// ──────────────────────────────────────────────────
// Export hooks
// ──────────────────────────────────────────────────

// OnExportCompleted implements plugin.OnExportCompleted.
func (e *Extension) OnExportCompleted(ctx context.Context, sessionID id.SessionID, exportID id.ExportID, filename string, pages int, elapsed time.Duration) error {
	return e.record(ctx, ActionExportCompleted, SeverityInfo, OutcomeSuccess,
		ResourceExport, exportID.String(), CategoryDelivery, nil,
		"session_id", sessionID.String(),
		"filename", filename,
		"pages", pages,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnExportFailed implements plugin.OnExportFailed.
func (e *Extension) OnExportFailed(ctx context.Context, sessionID id.SessionID, err error) error {
	return e.record(ctx, ActionExportFailed, SeverityError, OutcomeFailure,
		ResourceExport, "", CategoryDelivery, err,
		"session_id", sessionID.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

// Package plugin provides an extensible plugin system for invoicer.
// Plugins can hook into session, editing and export events, and can
// contribute document formats.
package plugin

import (
	"context"
	"io"
	"time"

	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/id"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Session hooks
// ──────────────────────────────────────────────────

// OnSessionOpened is called after a session and its default record are created.
type OnSessionOpened interface {
	Plugin
	OnSessionOpened(ctx context.Context, sessionID id.SessionID, rec document.Record) error
}

// OnSessionClosed is called after a session is discarded. Reason is
// "closed" for explicit closes and "expired" for idle sweeps.
type OnSessionClosed interface {
	Plugin
	OnSessionClosed(ctx context.Context, sessionID id.SessionID, reason string) error
}

// ──────────────────────────────────────────────────
// Editing hooks
// ──────────────────────────────────────────────────

// OnDocumentChanged is called after a field patch is applied.
type OnDocumentChanged interface {
	Plugin
	OnDocumentChanged(ctx context.Context, sessionID id.SessionID, fields []string, rec document.Record) error
}

// OnKindChanged is called when a record switches between invoice and
// quotation and has been renumbered.
type OnKindChanged interface {
	Plugin
	OnKindChanged(ctx context.Context, sessionID id.SessionID, from, to document.Kind, number string) error
}

// OnItemAdded is called after a line item is appended.
type OnItemAdded interface {
	Plugin
	OnItemAdded(ctx context.Context, sessionID id.SessionID, item document.LineItem) error
}

// OnItemRemoved is called after a line item is removed.
type OnItemRemoved interface {
	Plugin
	OnItemRemoved(ctx context.Context, sessionID id.SessionID, itemID document.ItemID) error
}

// OnTotalsRecalculated is called after every recompute with the new totals
// and amount in words.
type OnTotalsRecalculated interface {
	Plugin
	OnTotalsRecalculated(ctx context.Context, sessionID id.SessionID, view document.View) error
}

// ──────────────────────────────────────────────────
// Export hooks
// ──────────────────────────────────────────────────

// OnExportCompleted is called after a PDF has been produced.
type OnExportCompleted interface {
	Plugin
	OnExportCompleted(ctx context.Context, sessionID id.SessionID, exportID id.ExportID, filename string, pages int, elapsed time.Duration) error
}

// OnExportFailed is called when producing a PDF fails.
type OnExportFailed interface {
	Plugin
	OnExportFailed(ctx context.Context, sessionID id.SessionID, err error) error
}

// ──────────────────────────────────────────────────
// Document formatters
// ──────────────────────────────────────────────────

// DocumentFormatter renders a document view in one output format.
type DocumentFormatter interface {
	Plugin
	Format() string // "pdf", "html", ...
	ContentType() string
	Render(ctx context.Context, view document.View, w io.Writer) error
}

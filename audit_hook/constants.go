package audithook

// Action constants for audit events.
const (
	// Session actions
	ActionSessionOpened  = "session.opened"
	ActionSessionClosed  = "session.closed"
	ActionSessionExpired = "session.expired"

	// Document actions
	ActionDocumentChanged = "document.changed"
	ActionKindChanged     = "document.kind_changed"
	ActionItemAdded       = "item.added"
	ActionItemRemoved     = "item.removed"

	// Export actions
	ActionExportCompleted = "export.completed"
	ActionExportFailed    = "export.failed"
)

// Resource constants for audit events.
const (
	ResourceSession  = "session"
	ResourceDocument = "document"
	ResourceItem     = "item"
	ResourceExport   = "export"
)

// Category constants for audit events.
const (
	CategorySession  = "session"
	CategoryEditing  = "editing"
	CategoryDelivery = "delivery"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

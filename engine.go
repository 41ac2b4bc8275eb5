package invoicer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/export"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/ledger"
	"github.com/xraph/invoicer/plugin"
	"github.com/xraph/invoicer/preview"
	"github.com/xraph/invoicer/session"
	"github.com/xraph/invoicer/store"
)

// Session close reasons reported to plugins.
const (
	ReasonClosed  = "closed"
	ReasonExpired = "expired"
)

// Engine hosts editing sessions: it opens one ledger.Manager per session,
// keeps them in a store, expires idle ones and turns their documents into
// PDFs and printable pages.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   func() time.Time

	exporter *export.Exporter
	renderer *export.Renderer
	preview  *preview.Preview

	// Background sweeper
	cron    *cron.Cron
	mu      sync.Mutex
	started bool
	stopped bool

	// Serializes the session-limit check with the store put.
	openMu sync.Mutex

	// Configuration
	defaults        document.Defaults
	issuer          document.Issuer
	letterhead      []byte
	letterheadURL   string
	sessionTTL      time.Duration
	sweepSchedule   string
	maxSessions     int
	requireComplete bool
}

// New creates a new Engine backed by s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:         s,
		plugins:       plugin.NewRegistry(),
		logger:        slog.Default(),
		clock:         time.Now,
		defaults:      document.DefaultDefaults(),
		sessionTTL:    2 * time.Hour,
		sweepSchedule: "@every 1m",
	}

	for _, opt := range opts {
		opt(e)
	}

	e.exporter = export.NewExporter(
		export.WithLogger(e.logger),
		export.WithClock(e.clock),
	)
	e.renderer = export.NewRenderer(
		export.WithLogger(e.logger),
		export.WithClock(e.clock),
		export.WithIssuer(e.issuer),
		export.WithLetterhead(e.letterhead),
	)
	e.preview = preview.New(
		preview.WithIssuer(e.issuer),
		preview.WithLetterhead(e.letterheadURL),
	)

	// Built-in formats yield to plugins registered for the same format.
	for _, f := range []plugin.DocumentFormatter{e.renderer, e.preview} {
		if e.plugins.Formatter(f.Format()) == nil {
			_ = e.plugins.Register(f) //nolint:errcheck // names are fixed and unique
		}
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

// WithClock sets the time source for new records, renumbering and expiry.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithDefaults sets the values new records are seeded with.
func WithDefaults(d document.Defaults) Option {
	return func(e *Engine) {
		e.defaults = d
	}
}

// WithIssuer sets the signer name and company printed on documents.
func WithIssuer(issuer document.Issuer) Option {
	return func(e *Engine) {
		e.issuer = issuer
	}
}

// WithLetterhead sets the page background: image bytes for native PDFs and
// a URL for the HTML page.
func WithLetterhead(image []byte, url string) Option {
	return func(e *Engine) {
		e.letterhead = image
		e.letterheadURL = url
	}
}

// WithSessionTTL sets how long a session may sit unedited before the
// sweeper closes it. Zero disables expiry.
func WithSessionTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.sessionTTL = ttl
	}
}

// WithSweepSchedule sets the cron schedule of the idle sweeper, e.g. "@every 1m".
func WithSweepSchedule(schedule string) Option {
	return func(e *Engine) {
		if schedule != "" {
			e.sweepSchedule = schedule
		}
	}
}

// WithMaxSessions caps concurrently open sessions. Zero means no cap.
func WithMaxSessions(n int) Option {
	return func(e *Engine) {
		e.maxSessions = n
	}
}

// WithRequireComplete makes exports fail while required display fields,
// such as the client name, are empty.
func WithRequireComplete(require bool) Option {
	return func(e *Engine) {
		e.requireComplete = require
	}
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Store returns the session store.
func (e *Engine) Store() store.Store { return e.store }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Formats returns the names of the registered document formats.
func (e *Engine) Formats() []string { return e.plugins.Formats() }

// Start initializes plugins and schedules the idle sweeper.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return ErrEngineStopped
	}
	if e.started {
		return nil
	}

	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreNotReady, err)
	}

	e.plugins.EmitInit(ctx, e)

	if e.sessionTTL > 0 {
		c := cron.New()
		if _, err := c.AddFunc(e.sweepSchedule, func() {
			if _, err := e.Sweep(context.Background()); err != nil {
				e.logger.Warn("session sweep failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("invoicer: sweep schedule %q: %w", e.sweepSchedule, err)
		}
		c.Start()
		e.cron = c
	}

	e.started = true
	e.logger.Info("invoicer started",
		"session_ttl", e.sessionTTL,
		"sweep_schedule", e.sweepSchedule,
		"max_sessions", e.maxSessions,
		"formats", e.plugins.Formats(),
	)

	return nil
}

// Stop halts the sweeper, notifies plugins and closes the store. Open
// sessions are discarded.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return nil
	}
	e.stopped = true

	if e.cron != nil {
		<-e.cron.Stop().Done()
	}

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	e.logger.Info("invoicer stopped")
	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Sessions
// ──────────────────────────────────────────────────

// OpenOpts describes a new session.
type OpenOpts struct {
	Owner  string
	Labels map[string]string
	Kind   document.Kind // zero value uses the engine default
}

// Open creates a session holding a freshly defaulted record.
func (e *Engine) Open(ctx context.Context, opts OpenOpts) (*session.Session, error) {
	if e.isStopped() {
		return nil, ErrEngineStopped
	}

	defaults := e.defaults
	if opts.Kind != "" {
		if !opts.Kind.Valid() {
			return nil, ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", opts.Kind)}
		}
		defaults.Kind = opts.Kind
	}

	sid := id.NewSessionID()
	sess := &session.Session{
		ID:     sid,
		Owner:  opts.Owner,
		Labels: opts.Labels,
		Manager: ledger.New(
			ledger.WithSessionID(sid),
			ledger.WithClock(e.clock),
			ledger.WithLogger(e.logger),
			ledger.WithPlugins(e.plugins),
			ledger.WithDefaults(defaults),
		),
	}

	if err := e.admit(ctx, sess); err != nil {
		return nil, err
	}

	rec := sess.Manager.Snapshot()
	e.logger.Info("session opened",
		"session_id", sid.String(),
		"owner", opts.Owner,
		"number", rec.Number,
	)
	e.plugins.EmitSessionOpened(ctx, sid, rec)

	return sess, nil
}

// admit stores sess unless the session limit is reached.
func (e *Engine) admit(ctx context.Context, sess *session.Session) error {
	if e.maxSessions <= 0 {
		return e.store.PutSession(ctx, sess)
	}

	e.openMu.Lock()
	defer e.openMu.Unlock()

	n, err := e.store.CountSessions(ctx)
	if err != nil {
		return err
	}
	if n >= e.maxSessions {
		return ErrSessionLimit
	}
	return e.store.PutSession(ctx, sess)
}

// Get returns an open session.
func (e *Engine) Get(ctx context.Context, sessionID id.SessionID) (*session.Session, error) {
	return e.store.GetSession(ctx, sessionID)
}

// Manager returns the state manager of an open session.
func (e *Engine) Manager(ctx context.Context, sessionID id.SessionID) (*ledger.Manager, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Manager, nil
}

// Close discards a session and its record.
func (e *Engine) Close(ctx context.Context, sessionID id.SessionID) error {
	return e.close(ctx, sessionID, ReasonClosed)
}

func (e *Engine) close(ctx context.Context, sessionID id.SessionID, reason string) error {
	if err := e.store.DeleteSession(ctx, sessionID); err != nil {
		return err
	}

	e.logger.Info("session closed",
		"session_id", sessionID.String(),
		"reason", reason,
	)
	e.plugins.EmitSessionClosed(ctx, sessionID, reason)
	return nil
}

// List summarizes open sessions.
func (e *Engine) List(ctx context.Context, opts session.ListOpts) ([]session.Info, error) {
	sessions, err := e.store.ListSessions(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make([]session.Info, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	return out, nil
}

// Sweep closes every session idle for longer than the session TTL and
// reports how many it closed.
func (e *Engine) Sweep(ctx context.Context) (int, error) {
	if e.sessionTTL <= 0 {
		return 0, nil
	}

	sessions, err := e.store.ListSessions(ctx, session.ListOpts{})
	if err != nil {
		return 0, err
	}

	now := e.clock()
	var (
		closed int
		errs   MultiError
	)
	for _, s := range sessions {
		if !s.Manager.IsStale(now, e.sessionTTL) {
			continue
		}
		if err := e.close(ctx, s.ID, ReasonExpired); err != nil {
			if !errors.Is(err, ErrSessionNotFound) {
				errs.Add(err)
			}
			continue
		}
		closed++
	}

	if closed > 0 {
		e.logger.Debug("idle sessions swept", "closed", closed, "ttl", e.sessionTTL)
	}
	return closed, errs.ErrorOrNil()
}

// ──────────────────────────────────────────────────
// Export
// ──────────────────────────────────────────────────

// ExportPDF tiles a rendered image of the session's document into a PDF.
// The session is never modified.
func (e *Engine) ExportPDF(ctx context.Context, sessionID id.SessionID, raster export.Raster) (*export.Result, error) {
	view, err := e.exportView(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	res, err := e.exporter.Tile(ctx, view, raster)
	if err != nil {
		if errors.Is(err, export.ErrInvalidRaster) {
			err = fmt.Errorf("%w: %w", ErrInvalidImage, err)
		} else {
			err = fmt.Errorf("%w: %w", ErrExportFailed, err)
		}
		return nil, e.exportFailed(ctx, sessionID, err)
	}

	e.exportCompleted(ctx, sessionID, res)
	return res, nil
}

// RenderPDF draws the session's document into a PDF. A plugin registered
// for the "pdf" format takes the place of the built-in renderer.
func (e *Engine) RenderPDF(ctx context.Context, sessionID id.SessionID) (*export.Result, error) {
	view, err := e.exportView(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var res *export.Result
	if f := e.plugins.Formatter("pdf"); f != nil && f != plugin.DocumentFormatter(e.renderer) {
		res, err = e.formatResult(ctx, f, view)
	} else {
		res, err = e.renderer.Export(ctx, view)
	}
	if err != nil {
		return nil, e.exportFailed(ctx, sessionID, fmt.Errorf("%w: %w", ErrRenderFailed, err))
	}

	e.exportCompleted(ctx, sessionID, res)
	return res, nil
}

// formatResult runs a plugin formatter into an export result. Its page
// count is unknown and reported as 0.
func (e *Engine) formatResult(ctx context.Context, f plugin.DocumentFormatter, view document.View) (*export.Result, error) {
	start := e.clock()

	var buf bytes.Buffer
	if err := f.Render(ctx, view, &buf); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}
	return &export.Result{
		ID:          id.NewExportID(),
		Filename:    view.Record.Filename(),
		ContentType: f.ContentType(),
		Size:        buf.Len(),
		Elapsed:     e.clock().Sub(start),
		Data:        buf.Bytes(),
	}, nil
}

// RenderHTML writes the session's printable HTML page to w.
func (e *Engine) RenderHTML(ctx context.Context, sessionID id.SessionID, w io.Writer) error {
	_, err := e.Render(ctx, sessionID, "html", w)
	return err
}

// Render writes the session's document to w in a registered format and
// returns its content type.
func (e *Engine) Render(ctx context.Context, sessionID id.SessionID, format string, w io.Writer) (string, error) {
	f := e.plugins.Formatter(format)
	if f == nil {
		return "", fmt.Errorf("%w: %q (have %s)", ErrUnknownFormat, format, strings.Join(e.plugins.Formats(), ", "))
	}

	view, err := e.exportView(ctx, sessionID)
	if err != nil {
		return "", err
	}

	if err := f.Render(ctx, view, w); err != nil {
		return "", e.exportFailed(ctx, sessionID, fmt.Errorf("%w: %s: %w", ErrRenderFailed, format, err))
	}
	return f.ContentType(), nil
}

func (e *Engine) exportView(ctx context.Context, sessionID id.SessionID) (document.View, error) {
	m, err := e.Manager(ctx, sessionID)
	if err != nil {
		return document.View{}, err
	}
	view := m.View()

	if e.requireComplete {
		if missing := view.Record.Missing(); len(missing) > 0 {
			return document.View{}, fmt.Errorf("%w: missing %s", ErrIncompleteData, strings.Join(missing, ", "))
		}
	}
	return view, nil
}

func (e *Engine) exportFailed(ctx context.Context, sessionID id.SessionID, err error) error {
	e.logger.Error("export failed",
		"session_id", sessionID.String(),
		"error", err,
	)
	e.plugins.EmitExportFailed(ctx, sessionID, err)
	return err
}

func (e *Engine) exportCompleted(ctx context.Context, sessionID id.SessionID, res *export.Result) {
	e.logger.Info("export completed",
		"session_id", sessionID.String(),
		"export_id", res.ID.String(),
		"filename", res.Filename,
		"pages", res.Pages,
		"bytes", res.Size,
	)
	e.plugins.EmitExportCompleted(ctx, sessionID, res.ID, res.Filename, res.Pages, res.Elapsed)
}

func (e *Engine) isStopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped
}

// Package ledger holds the per-session document state manager.
//
// A Manager owns exactly one document.Record. Every mutation is applied and
// followed by a recompute of line amounts, subtotal, tax, total and the
// amount in words before the manager lock is released, so readers never see
// stale derived fields.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/plugin"
	"github.com/xraph/invoicer/types"
	"github.com/xraph/invoicer/words"
)

var (
	// ErrUnknownItem is returned by RemoveItemAbove for an ID not in the record.
	ErrUnknownItem = errors.New("ledger: unknown item")

	// ErrItemFloor is returned by RemoveItemAbove when the removal would leave
	// fewer rows than allowed.
	ErrItemFloor = errors.New("ledger: item floor reached")
)

// Manager is the state manager of one editing session.
type Manager struct {
	mu sync.Mutex

	sessionID id.SessionID
	rec       document.Record
	inWords   string
	lastItem  int
	entity    types.Entity

	defaults document.Defaults
	clock    func() time.Time
	logger   *slog.Logger
	plugins  *plugin.Registry
}

// Option configures a Manager.
type Option func(*Manager)

// WithSessionID sets the session the manager reports in plugin events.
func WithSessionID(sessionID id.SessionID) Option {
	return func(m *Manager) { m.sessionID = sessionID }
}

// WithClock sets the time source used for the default dates and for
// renumbering on kind changes.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithPlugins sets the registry that receives editing events.
func WithPlugins(r *plugin.Registry) Option {
	return func(m *Manager) { m.plugins = r }
}

// WithDefaults sets the values a fresh record is seeded with.
func WithDefaults(d document.Defaults) Option {
	return func(m *Manager) { m.defaults = d }
}

// New creates a manager holding a freshly defaulted record.
func New(opts ...Option) *Manager {
	m := &Manager{
		defaults: document.DefaultDefaults(),
		clock:    time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.plugins == nil {
		m.plugins = plugin.NewRegistry().WithLogger(m.logger)
	}
	if m.defaults.Currency.Code == "" {
		m.defaults.Currency = types.Naira
	}
	m.defaults.Currency.Code = strings.ToLower(m.defaults.Currency.Code)
	if m.defaults.Currency.Major == "" {
		m.defaults.Currency.Major = types.Naira.Major
		m.defaults.Currency.Minor = types.Naira.Minor
	}

	now := m.clock()
	m.entity = types.NewEntity(now)
	m.rec = document.New(now, m.defaults)
	m.lastItem = len(m.rec.Items)
	m.recompute()

	return m
}

// SessionID returns the session the manager belongs to.
func (m *Manager) SessionID() id.SessionID { return m.sessionID }

// ──────────────────────────────────────────────────
// Mutations
// ──────────────────────────────────────────────────

// SetField merges the present fields of p into the record. A kind change
// renumbers the record to <PREFIX>-<today>-001 and overrides any number in
// the same patch.
func (m *Manager) SetField(ctx context.Context, p document.Patch) document.View {
	var (
		from, to document.Kind
		changed  bool
	)

	view := m.applyAndRecompute(func(r *document.Record) {
		from = r.Kind
		changed = p.Merge(r)
		if changed {
			to = r.Kind
			r.Number = document.Number(r.Kind, m.clock(), 1)
		}
	})

	fields := p.Fields()
	m.logger.Debug("document fields set",
		"session_id", m.sessionID.String(),
		"fields", fields,
	)
	m.plugins.EmitDocumentChanged(ctx, m.sessionID, fields, view.Record)
	if changed {
		m.plugins.EmitKindChanged(ctx, m.sessionID, from, to, view.Record.Number)
	}
	m.plugins.EmitTotalsRecalculated(ctx, m.sessionID, view)

	return view
}

// AddItem appends a blank row (one unit at zero rate) and returns it.
// Item IDs come from a counter that never goes backwards, so removed IDs are
// not reused.
func (m *Manager) AddItem(ctx context.Context) document.LineItem {
	var item document.LineItem

	view := m.applyAndRecompute(func(r *document.Record) {
		m.lastItem++
		item = document.NewLineItem(
			document.ItemID(strconv.Itoa(m.lastItem)),
			m.defaults.Unit,
			m.defaults.Currency.Code,
		)
		r.Items = append(r.Items, item)
	})

	m.logger.Debug("item added",
		"session_id", m.sessionID.String(),
		"item_id", string(item.ID),
	)
	m.plugins.EmitItemAdded(ctx, m.sessionID, item)
	m.plugins.EmitTotalsRecalculated(ctx, m.sessionID, view)

	return item
}

// UpdateItem merges p into the item with the given ID. When Quantity or Rate
// is present the amount is recomputed from the merged values. An unknown ID
// is a no-op and reports false.
func (m *Manager) UpdateItem(ctx context.Context, itemID document.ItemID, p document.ItemPatch) (document.LineItem, bool) {
	var (
		item  document.LineItem
		found bool
	)

	if p.Rate != nil {
		rate := *p.Rate
		rate.Currency = m.defaults.Currency.Code
		p.Rate = &rate
	}

	view := m.applyAndRecompute(func(r *document.Record) {
		i := r.IndexOf(itemID)
		if i < 0 {
			return
		}
		p.Merge(&r.Items[i])
		item, found = r.Items[i], true
	})

	if !found {
		m.logger.Debug("item update ignored: unknown id",
			"session_id", m.sessionID.String(),
			"item_id", string(itemID),
		)
		return document.LineItem{}, false
	}

	m.plugins.EmitTotalsRecalculated(ctx, m.sessionID, view)
	return item, true
}

// RemoveItem deletes the item with the given ID. The manager permits an
// empty item list. An unknown ID is a no-op and reports false.
func (m *Manager) RemoveItem(ctx context.Context, itemID document.ItemID) bool {
	return m.removeItem(ctx, itemID, 0) == nil
}

// RemoveItemAbove deletes the item with the given ID unless fewer than floor
// rows would remain. The check and the removal happen under one lock hold.
// It returns ErrUnknownItem or ErrItemFloor when nothing was removed.
func (m *Manager) RemoveItemAbove(ctx context.Context, itemID document.ItemID, floor int) error {
	return m.removeItem(ctx, itemID, floor)
}

func (m *Manager) removeItem(ctx context.Context, itemID document.ItemID, floor int) error {
	var err error

	view := m.applyAndRecompute(func(r *document.Record) {
		i := r.IndexOf(itemID)
		switch {
		case i < 0:
			err = ErrUnknownItem
		case len(r.Items)-1 < floor:
			err = ErrItemFloor
		default:
			r.Items = append(r.Items[:i:i], r.Items[i+1:]...)
		}
	})

	if err != nil {
		return err
	}

	m.logger.Debug("item removed",
		"session_id", m.sessionID.String(),
		"item_id", string(itemID),
	)
	m.plugins.EmitItemRemoved(ctx, m.sessionID, itemID)
	m.plugins.EmitTotalsRecalculated(ctx, m.sessionID, view)

	return nil
}

// RecalculateTotals recomputes subtotal, tax, total and the amount in words.
// Every mutation already does this; calling it again changes nothing.
func (m *Manager) RecalculateTotals(ctx context.Context) document.View {
	view := m.applyAndRecompute(func(*document.Record) {})
	m.plugins.EmitTotalsRecalculated(ctx, m.sessionID, view)
	return view
}

// ──────────────────────────────────────────────────
// Accessors
// ──────────────────────────────────────────────────

// Snapshot returns a deep copy of the current record.
func (m *Manager) Snapshot() document.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.Clone()
}

// AmountInWords returns the total spelled out.
func (m *Manager) AmountInWords() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inWords
}

// View returns the record and its amount in words from the same instant.
func (m *Manager) View() document.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// Activity returns when the session was opened and last edited.
func (m *Manager) Activity() types.Entity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entity
}

// IsStale reports whether the session has not been edited within ttl.
func (m *Manager) IsStale(now time.Time, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entity.IsStale(now, ttl)
}

// ──────────────────────────────────────────────────
// Pipeline
// ──────────────────────────────────────────────────

// applyAndRecompute is the only path that writes the record. The mutation
// and the recompute run under one lock hold.
func (m *Manager) applyAndRecompute(mutate func(r *document.Record)) document.View {
	m.mu.Lock()
	defer m.mu.Unlock()

	mutate(&m.rec)
	m.recompute()
	m.entity.Touch(m.clock())

	return m.viewLocked()
}

// recompute derives subtotal, tax, total and words. Caller holds mu or owns m
// exclusively.
func (m *Manager) recompute() {
	code := m.defaults.Currency.Code

	subtotal := types.Zero(code)
	for _, it := range m.rec.Items {
		subtotal = subtotal.Add(it.Amount)
	}
	tax := subtotal.Percent(m.rec.TaxRate)

	m.rec.Subtotal = subtotal
	m.rec.Tax = tax
	m.rec.Total = subtotal.Add(tax)
	m.inWords = words.AmountIn(m.rec.Total.Decimal(), words.Units{
		Major: m.defaults.Currency.Major,
		Minor: m.defaults.Currency.Minor,
	})
}

func (m *Manager) viewLocked() document.View {
	return document.View{Record: m.rec.Clone(), AmountInWords: m.inWords}
}

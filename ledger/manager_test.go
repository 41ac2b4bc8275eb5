package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/ledger"
	"github.com/xraph/invoicer/plugin"
	"github.com/xraph/invoicer/types"
)

var opened = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// fixedClock returns a clock frozen at t that tests can move.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func newManager(t *testing.T, opts ...ledger.Option) (*ledger.Manager, *fixedClock) {
	t.Helper()
	clock := &fixedClock{t: opened}
	return ledger.New(append([]ledger.Option{ledger.WithClock(clock.Now)}, opts...)...), clock
}

// checkInvariants verifies the derived fields against the items.
func checkInvariants(t *testing.T, r document.Record) {
	t.Helper()
	var sum int64
	for _, it := range r.Items {
		if it.Amount.Amount != it.Quantity*it.Rate.Amount {
			t.Errorf("item %s: amount %d != %d × %d", it.ID, it.Amount.Amount, it.Quantity, it.Rate.Amount)
		}
		sum += it.Amount.Amount
	}
	if r.Subtotal.Amount != sum {
		t.Errorf("subtotal = %d, want %d", r.Subtotal.Amount, sum)
	}
	if want := r.Subtotal.Percent(r.TaxRate); !r.Tax.Equal(want) {
		t.Errorf("tax = %d, want %d", r.Tax.Amount, want.Amount)
	}
	if r.Total.Amount != r.Subtotal.Amount+r.Tax.Amount {
		t.Errorf("total = %d, want %d", r.Total.Amount, r.Subtotal.Amount+r.Tax.Amount)
	}
}

func TestNewDefaults(t *testing.T) {
	m, _ := newManager(t)
	r := m.Snapshot()

	if r.Kind != document.KindInvoice || r.Number != "INV-20261019-001" {
		t.Errorf("kind/number = %q %q", r.Kind, r.Number)
	}
	if len(r.Items) != 1 || r.Items[0].ID != "1" {
		t.Fatalf("items = %+v", r.Items)
	}
	if !r.Total.IsZero() {
		t.Errorf("total = %v", r.Total)
	}
	if got := m.AmountInWords(); got != "Zero Naira Only" {
		t.Errorf("words = %q", got)
	}
	checkInvariants(t, r)
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	m.UpdateItem(ctx, "1", document.ItemPatch{
		Quantity: ptr(int64(2)),
		Rate:     ptr(types.NGN(100000)),
	})

	v := m.View()
	r := v.Record
	if r.Subtotal.Amount != 200000 || r.Tax.Amount != 15000 || r.Total.Amount != 215000 {
		t.Errorf("subtotal/tax/total = %d/%d/%d", r.Subtotal.Amount, r.Tax.Amount, r.Total.Amount)
	}
	if v.AmountInWords != "Two Thousand One Hundred and Fifty Naira Only" {
		t.Errorf("words = %q", v.AmountInWords)
	}
	checkInvariants(t, r)
}

func TestInvariantsAfterEachOperation(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	steps := []struct {
		name string
		op   func()
	}{
		{"update first", func() {
			m.UpdateItem(ctx, "1", document.ItemPatch{Quantity: ptr(int64(3)), Rate: ptr(types.NGN(33333))})
		}},
		{"add", func() { m.AddItem(ctx) }},
		{"price added", func() {
			m.UpdateItem(ctx, "2", document.ItemPatch{Rate: ptr(types.NGN(12345)), Description: ptr("Labour")})
		}},
		{"tax rate", func() {
			rate := decimal.RequireFromString("12.5")
			m.SetField(ctx, document.Patch{TaxRate: &rate})
		}},
		{"add another", func() { m.AddItem(ctx) }},
		{"quantity", func() { m.UpdateItem(ctx, "3", document.ItemPatch{Quantity: ptr(int64(7))}) }},
		{"remove", func() { m.RemoveItem(ctx, "1") }},
		{"zero tax", func() { m.SetField(ctx, document.Patch{TaxRate: ptr(decimal.Zero)}) }},
		{"recalculate", func() { m.RecalculateTotals(ctx) }},
		{"remove all", func() {
			m.RemoveItem(ctx, "2")
			m.RemoveItem(ctx, "3")
		}},
	}

	for _, s := range steps {
		s.op()
		t.Run(s.name, func(t *testing.T) {
			checkInvariants(t, m.Snapshot())
		})
	}

	if r := m.Snapshot(); len(r.Items) != 0 || !r.Total.IsZero() {
		t.Errorf("empty record: items=%d total=%v", len(r.Items), r.Total)
	}
}

func TestKindChange(t *testing.T) {
	ctx := context.Background()
	m, clock := newManager(t)

	rate := decimal.RequireFromString("5")
	m.SetField(ctx, document.Patch{
		Client:  document.ClientPatch{Name: ptr("Ada"), Company: ptr("Engines Ltd")},
		TaxRate: &rate,
	})
	m.UpdateItem(ctx, "1", document.ItemPatch{Quantity: ptr(int64(4)), Rate: ptr(types.NGN(2500))})
	before := m.Snapshot()

	clock.Set(opened.AddDate(0, 0, 2))
	q := document.KindQuotation
	m.SetField(ctx, document.Patch{Kind: &q})
	after := m.Snapshot()

	if after.Kind != document.KindQuotation {
		t.Fatalf("kind = %q", after.Kind)
	}
	if after.Number != "QUO-20261021-001" {
		t.Errorf("number = %q", after.Number)
	}
	if after.Client != before.Client || !after.TaxRate.Equal(before.TaxRate) {
		t.Error("kind change touched client or tax rate")
	}
	if len(after.Items) != 1 || after.Items[0] != before.Items[0] {
		t.Errorf("kind change touched items: %+v", after.Items)
	}
	if !after.Total.Equal(before.Total) {
		t.Errorf("total changed: %v -> %v", before.Total, after.Total)
	}

	inv := document.KindInvoice
	m.SetField(ctx, document.Patch{Kind: &inv})
	back := m.Snapshot()
	if back.Number != "INV-20261021-001" {
		t.Errorf("number = %q", back.Number)
	}
	if back.Client != before.Client || back.Items[0] != before.Items[0] {
		t.Error("round trip lost data")
	}
}

func TestKindChangeOverridesNumber(t *testing.T) {
	m, _ := newManager(t)
	q := document.KindQuotation
	r := m.SetField(context.Background(), document.Patch{Kind: &q, Number: ptr("CUSTOM-1")}).Record
	if r.Number != "QUO-20261019-001" {
		t.Errorf("number = %q", r.Number)
	}
}

func TestSameKindKeepsNumber(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	m.SetField(ctx, document.Patch{Number: ptr("INV-20261019-042")})

	inv := document.KindInvoice
	r := m.SetField(ctx, document.Patch{Kind: &inv}).Record
	if r.Number != "INV-20261019-042" {
		t.Errorf("number = %q", r.Number)
	}
}

func TestUnknownItemIsNoop(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	m.UpdateItem(ctx, "1", document.ItemPatch{Quantity: ptr(int64(2)), Rate: ptr(types.NGN(500))})
	before := m.Snapshot()

	if m.RemoveItem(ctx, "99") {
		t.Error("RemoveItem reported success for unknown id")
	}
	if _, ok := m.UpdateItem(ctx, "99", document.ItemPatch{Quantity: ptr(int64(9))}); ok {
		t.Error("UpdateItem reported success for unknown id")
	}

	after := m.Snapshot()
	if len(after.Items) != len(before.Items) || after.Items[0] != before.Items[0] || !after.Total.Equal(before.Total) {
		t.Errorf("record changed: %+v -> %+v", before, after)
	}
}

func TestRateOnlyUpdateKeepsQuantity(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	m.UpdateItem(ctx, "1", document.ItemPatch{Quantity: ptr(int64(5))})

	item, ok := m.UpdateItem(ctx, "1", document.ItemPatch{Rate: ptr(types.NGN(300))})
	if !ok {
		t.Fatal("update failed")
	}
	if item.Quantity != 5 || item.Amount.Amount != 1500 {
		t.Errorf("item = %+v", item)
	}
}

func TestRateCurrencyNormalized(t *testing.T) {
	m, _ := newManager(t)
	item, _ := m.UpdateItem(context.Background(), "1", document.ItemPatch{Rate: &types.Money{Amount: 100}})
	if item.Rate.Currency != "ngn" || item.Amount.Currency != "ngn" {
		t.Errorf("currency = %q/%q", item.Rate.Currency, item.Amount.Currency)
	}
}

func TestUppercaseCurrencyDefaults(t *testing.T) {
	ctx := context.Background()
	d := document.DefaultDefaults()
	d.Currency = types.Currency{Code: "NGN", Major: "Naira", Minor: "Kobo"}
	m, _ := newManager(t, ledger.WithDefaults(d))

	m.UpdateItem(ctx, "1", document.ItemPatch{Rate: ptr(types.NGN(1000))})
	item := m.AddItem(ctx)
	m.UpdateItem(ctx, item.ID, document.ItemPatch{Rate: &types.Money{Amount: 500, Currency: "NGN"}})

	rec := m.Snapshot()
	if rec.Total.Currency != "ngn" || rec.Items[1].Rate.Currency != "ngn" {
		t.Errorf("currencies = %q/%q", rec.Total.Currency, rec.Items[1].Rate.Currency)
	}
	if rec.Subtotal.Amount != 1500 {
		t.Errorf("subtotal = %d", rec.Subtotal.Amount)
	}
}

func TestOversizedValuesSaturate(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	rate := types.FromDecimal(decimal.RequireFromString("100000000000"), "ngn")
	item, _ := m.UpdateItem(ctx, "1", document.ItemPatch{
		Quantity: ptr(document.MaxQuantity),
		Rate:     &rate,
	})
	if item.Quantity != document.MaxQuantity || item.Amount.Amount != types.MaxAmount {
		t.Fatalf("item = %+v", item)
	}

	other := m.AddItem(ctx)
	item, _ = m.UpdateItem(ctx, other.ID, document.ItemPatch{Quantity: ptr(int64(math.MaxInt64)), Rate: &rate})
	if item.Quantity != document.MaxQuantity || item.Amount.Amount != types.MaxAmount {
		t.Fatalf("second item = %+v", item)
	}

	view := m.View()
	rec := view.Record
	if rec.Subtotal.Amount != types.MaxAmount || rec.Total.Amount != types.MaxAmount {
		t.Errorf("subtotal = %d total = %d", rec.Subtotal.Amount, rec.Total.Amount)
	}
	want := "Nine Hundred and Ninety Nine Billion Nine Hundred and Ninety Nine Million " +
		"Nine Hundred and Ninety Nine Thousand Nine Hundred and Ninety Nine Naira and Ninety Nine Kobo Only"
	if view.AmountInWords != want {
		t.Errorf("words = %q", view.AmountInWords)
	}
}

func TestRemoveItemAbove(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	second := m.AddItem(ctx)

	if err := m.RemoveItemAbove(ctx, "99", 1); !errors.Is(err, ledger.ErrUnknownItem) {
		t.Errorf("unknown id: err = %v", err)
	}
	if err := m.RemoveItemAbove(ctx, second.ID, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := m.RemoveItemAbove(ctx, "1", 1); !errors.Is(err, ledger.ErrItemFloor) {
		t.Errorf("last row: err = %v", err)
	}
	if n := len(m.Snapshot().Items); n != 1 {
		t.Errorf("items = %d, want 1", n)
	}
}

func TestRemoveItemAboveConcurrent(t *testing.T) {
	ctx := context.Background()

	for range 50 {
		m, _ := newManager(t)
		second := m.AddItem(ctx)

		var (
			wg      sync.WaitGroup
			removed [2]error
		)
		for i, itemID := range []document.ItemID{"1", second.ID} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				removed[i] = m.RemoveItemAbove(ctx, itemID, 1)
			}()
		}
		wg.Wait()

		if n := len(m.Snapshot().Items); n != 1 {
			t.Fatalf("items = %d, want 1 (errs %v)", n, removed)
		}
		if (removed[0] == nil) == (removed[1] == nil) {
			t.Fatalf("want exactly one removal, got %v", removed)
		}
	}
}

func TestItemIDsNotReused(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	a := m.AddItem(ctx)
	b := m.AddItem(ctx)
	if a.ID != "2" || b.ID != "3" {
		t.Fatalf("ids = %q %q", a.ID, b.ID)
	}
	if a.Quantity != 1 || a.Unit != "pc" || !a.Rate.IsZero() {
		t.Errorf("new item = %+v", a)
	}

	m.RemoveItem(ctx, "2")
	m.RemoveItem(ctx, "1")
	c := m.AddItem(ctx)
	if c.ID != "4" {
		t.Errorf("id after removals = %q, want 4", c.ID)
	}

	seen := map[document.ItemID]bool{}
	for _, it := range m.Snapshot().Items {
		if seen[it.ID] {
			t.Errorf("duplicate id %q", it.ID)
		}
		seen[it.ID] = true
	}
}

func TestSnapshotIsolation(t *testing.T) {
	m, _ := newManager(t)
	snap := m.Snapshot()
	snap.Items[0].Quantity = 100
	snap.Client.Name = "mutated"

	r := m.Snapshot()
	if r.Items[0].Quantity != 1 || r.Client.Name != "" {
		t.Error("snapshot shares state with manager")
	}
}

func TestSignaturePatch(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	sig := document.Signature{Origin: document.OriginDrawn, Image: "data:image/png;base64,AA=="}

	if r := m.SetField(ctx, document.Patch{Signature: &sig}).Record; r.Signature == nil {
		t.Fatal("signature not stored")
	}
	if r := m.SetField(ctx, document.Patch{RemoveSignature: true}).Record; r.Signature != nil {
		t.Error("signature not removed")
	}
}

func TestActivity(t *testing.T) {
	m, clock := newManager(t)
	if a := m.Activity(); !a.CreatedAt.Equal(opened) {
		t.Errorf("created = %v", a.CreatedAt)
	}

	clock.Set(opened.Add(45 * time.Minute))
	if !m.IsStale(clock.Now(), 30*time.Minute) {
		t.Error("expected stale")
	}
	m.AddItem(context.Background())
	if m.IsStale(clock.Now(), 30*time.Minute) {
		t.Error("edit should refresh activity")
	}
}

func TestConcurrentEdits(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item := m.AddItem(ctx)
			m.UpdateItem(ctx, item.ID, document.ItemPatch{
				Quantity: ptr(int64(i + 1)),
				Rate:     ptr(types.NGN(int64(100 * (i + 1)))),
			})
			_ = m.View()
		}(i)
	}
	wg.Wait()

	r := m.Snapshot()
	if len(r.Items) != workers+1 {
		t.Errorf("items = %d, want %d", len(r.Items), workers+1)
	}
	checkInvariants(t, r)
}

// recorder captures editing events.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.events = append(r.events, s)
	r.mu.Unlock()
}

func (r *recorder) OnDocumentChanged(_ context.Context, _ id.SessionID, fields []string, _ document.Record) error {
	r.add(fmt.Sprintf("changed:%v", fields))
	return nil
}

func (r *recorder) OnKindChanged(_ context.Context, _ id.SessionID, from, to document.Kind, number string) error {
	r.add(fmt.Sprintf("kind:%s->%s:%s", from, to, number))
	return nil
}

func (r *recorder) OnItemAdded(_ context.Context, _ id.SessionID, item document.LineItem) error {
	r.add("added:" + string(item.ID))
	return nil
}

func (r *recorder) OnItemRemoved(_ context.Context, _ id.SessionID, itemID document.ItemID) error {
	r.add("removed:" + string(itemID))
	return nil
}

func (r *recorder) OnTotalsRecalculated(_ context.Context, _ id.SessionID, v document.View) error {
	r.add("totals:" + v.Record.Total.FormatMajor())
	return nil
}

func TestPluginEvents(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	reg := plugin.NewRegistry()
	if err := reg.Register(rec); err != nil {
		t.Fatal(err)
	}
	m, _ := newManager(t, ledger.WithPlugins(reg), ledger.WithSessionID(id.NewSessionID()))

	m.AddItem(ctx)
	m.UpdateItem(ctx, "2", document.ItemPatch{Rate: ptr(types.NGN(1000))})
	m.RemoveItem(ctx, "2")
	m.RemoveItem(ctx, "2")
	q := document.KindQuotation
	m.SetField(ctx, document.Patch{Kind: &q})

	want := []string{
		"added:2",
		"totals:0.00",
		"totals:10.75",
		"removed:2",
		"totals:0.00",
		"changed:[kind]",
		"kind:invoice->quotation:QUO-20261019-001",
		"totals:0.00",
	}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, rec.events[i], want[i])
		}
	}
}

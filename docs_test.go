package invoicer_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xraph/invoicer"
	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/store/memory"
	"github.com/xraph/invoicer/types"
	"github.com/xraph/invoicer/words"
)

// TestDocumentationExamples verifies that the package documentation examples work.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		eng := invoicer.New(memory.New(),
			invoicer.WithLogger(slog.Default()),
			invoicer.WithIssuer(document.Issuer{Name: "Ada Obi", Company: "Obi Works"}),
		)

		ctx := context.Background()
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer eng.Stop()

		sess, err := eng.Open(ctx, invoicer.OpenOpts{})
		if err != nil {
			t.Fatal(err)
		}

		qty := int64(2)
		rate := types.NGN(100000)
		if _, ok := sess.Manager.UpdateItem(ctx, "1", document.ItemPatch{Quantity: &qty, Rate: &rate}); !ok {
			t.Fatal("item 1 missing")
		}

		res, err := eng.RenderPDF(ctx, sess.ID)
		if err != nil {
			t.Fatal(err)
		}
		if res.Pages < 1 || !bytes.HasPrefix(res.Data, []byte("%PDF")) {
			t.Errorf("unexpected result: %d pages", res.Pages)
		}
	})

	t.Run("MoneyExamples", func(t *testing.T) {
		m := invoicer.NGN(200000) // ₦2,000.00
		tax := m.Percent(decimal.NewFromFloat(7.5))
		if tax.Amount != 15000 {
			t.Errorf("tax = %d", tax.Amount)
		}
		if got := m.Add(tax).FormatGrouped(); got != "2,150.00" {
			t.Errorf("FormatGrouped = %q", got)
		}
		if got := words.Amount(m.Add(tax).Decimal()); got != "Two Thousand One Hundred and Fifty Naira Only" {
			t.Errorf("words = %q", got)
		}
	})
}

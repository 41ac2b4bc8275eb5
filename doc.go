// Package invoicer builds invoices and quotations for a single issuer.
//
// Invoicer is a library first. Each editing session owns one document record
// and a ledger.Manager that keeps its derived state consistent: line amounts,
// subtotal, VAT, total and the total spelled out in words are recomputed after
// every edit. It provides:
//
//   - Invoice and quotation records with INV-/QUO- numbering by date
//   - Line items with integer kobo arithmetic and VAT rounded half-up
//   - Amount-to-words in Naira and Kobo ("One Thousand Fifty Naira Only")
//   - PDF export, either tiled from a rendered A4 image or drawn natively
//   - A printable HTML page for browser rendering
//   - Idle session expiry on a cron schedule
//   - Plugin hooks for audit trails and metrics
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/invoicer"
//	    "github.com/xraph/invoicer/document"
//	    "github.com/xraph/invoicer/store/memory"
//	)
//
//	eng := invoicer.New(memory.New(),
//	    invoicer.WithIssuer(document.Issuer{Name: "Ada Obi", Company: "Obi Works"}),
//	)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
//	sess, err := eng.Open(ctx, invoicer.OpenOpts{})
//	m := sess.Manager
//	m.UpdateItem(ctx, "1", document.ItemPatch{Quantity: &qty, Rate: &rate})
//	res, err := eng.RenderPDF(ctx, sess.ID)
//
// # Money
//
// Amounts are types.Money values holding integer kobo. Tax is computed with
// decimal rates and rounded half-up to the kobo, so totals always equal
// subtotal plus tax exactly.
//
// # Numbering
//
// New records are numbered <PREFIX>-<yyyyMMdd>-<seq> with a three digit
// sequence. Switching between invoice and quotation renumbers the record with
// the current date and sequence 001.
//
// # TypeID
//
// Sessions and exports use TypeIDs:
//
//	ses_01h2xcejqtf2nbrexx3vqjhp41  // Session ID
//	exp_01h455vb4pex5vsknk084sn02q  // Export ID
package invoicer

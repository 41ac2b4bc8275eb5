// Package document defines the invoice/quotation record edited in a session
// and the patches applied to it.
package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/invoicer/types"
)

// Kind selects whether a record is issued as an invoice or a quotation.
type Kind string

const (
	KindInvoice   Kind = "invoice"
	KindQuotation Kind = "quotation"
)

// ParseKind accepts "invoice" or "quotation" in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("document: unknown kind %q", s)
	}
	return k, nil
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindInvoice || k == KindQuotation
}

// Prefix is the number prefix: "INV" or "QUO".
func (k Kind) Prefix() string {
	if k == KindQuotation {
		return "QUO"
	}
	return "INV"
}

// Label is the printed title: "Invoice" or "Quotation".
func (k Kind) Label() string {
	if k == KindQuotation {
		return "Quotation"
	}
	return "Invoice"
}

// Payment term presets offered by the form. Any free text is accepted.
const (
	TermsDueOnReceipt = "Due on receipt"
	TermsNet15        = "Net 15"
	TermsNet30        = "Net 30"
	TermsNet45        = "Net 45"
	TermsNet60        = "Net 60"
)

// PaymentTermPresets lists the presets in display order.
var PaymentTermPresets = []string{
	TermsDueOnReceipt, TermsNet15, TermsNet30, TermsNet45, TermsNet60,
}

// Client is the addressee block.
type Client struct {
	Name    string `json:"name" yaml:"name"`
	Company string `json:"company" yaml:"company"`
	Address string `json:"address" yaml:"address"`
	Email   string `json:"email" yaml:"email"`
	Phone   string `json:"phone" yaml:"phone"`
	Title   string `json:"title" yaml:"title"`
}

// MaxQuantity is the largest quantity a line item holds.
const MaxQuantity int64 = 1_000_000_000

// ItemID identifies a line item within one record. IDs are never reused.
type ItemID string

// LineItem is one row of the items table. Amount is always Quantity × Rate
// and is never edited directly.
type LineItem struct {
	ID          ItemID      `json:"id"`
	Quantity    int64       `json:"quantity"`
	Unit        string      `json:"unit"`
	Description string      `json:"description"`
	Rate        types.Money `json:"rate"`
	Amount      types.Money `json:"amount"`
}

// Record is the full editable document plus its derived totals.
type Record struct {
	Kind         Kind            `json:"kind"`
	Client       Client          `json:"client"`
	Number       string          `json:"number"`
	IssueDate    time.Time       `json:"issue_date"`
	DueDate      time.Time       `json:"due_date"`
	PaymentTerms string          `json:"payment_terms"`
	Items        []LineItem      `json:"items"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Subtotal     types.Money     `json:"subtotal"`
	Tax          types.Money     `json:"tax"`
	Total        types.Money     `json:"total"`
	Signature    *Signature      `json:"signature,omitempty"`
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	if r.Items != nil {
		out.Items = make([]LineItem, len(r.Items))
		copy(out.Items, r.Items)
	}
	if r.Signature != nil {
		sig := *r.Signature
		out.Signature = &sig
	}
	return out
}

// Item returns the line item with the given ID.
func (r Record) Item(itemID ItemID) (LineItem, bool) {
	if i := r.IndexOf(itemID); i >= 0 {
		return r.Items[i], true
	}
	return LineItem{}, false
}

// ShowsTax reports whether the tax line is printed.
func (r Record) ShowsTax() bool {
	return r.TaxRate.IsPositive()
}

// ShowsPaymentTerms reports whether the due date and terms are printed.
// Quotations carry neither.
func (r Record) ShowsPaymentTerms() bool {
	return r.Kind == KindInvoice
}

// Missing lists required display fields that are empty.
func (r Record) Missing() []string {
	var missing []string
	if strings.TrimSpace(r.Client.Name) == "" {
		missing = append(missing, "client.name")
	}
	return missing
}

// Filename is the suggested PDF file name for r.
func (r Record) Filename() string {
	return Filename(r.Kind, r.Number, r.IssueDate)
}

// IndexOf returns the position of the item with the given ID, or -1.
func (r Record) IndexOf(itemID ItemID) int {
	for i := range r.Items {
		if r.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// View is a record together with its amount in words, as handed to
// renderers and transports.
type View struct {
	Record        Record `json:"record"`
	AmountInWords string `json:"amount_in_words"`
}

// Defaults seeds a freshly opened record.
type Defaults struct {
	Kind         Kind
	Unit         string
	TaxRate      decimal.Decimal
	PaymentTerms string
	DueInDays    int
	Currency     types.Currency
}

// DefaultDefaults returns the stock defaults: an invoice at 7.5% VAT, due
// in 30 days, payable on receipt.
func DefaultDefaults() Defaults {
	return Defaults{
		Kind:         KindInvoice,
		Unit:         "pc",
		TaxRate:      decimal.RequireFromString("7.5"),
		PaymentTerms: TermsDueOnReceipt,
		DueInDays:    30,
		Currency:     types.Naira,
	}
}

// New builds the initial record for a session opened at now. It has one
// empty item with ID "1".
func New(now time.Time, d Defaults) Record {
	if !d.Kind.Valid() {
		d.Kind = KindInvoice
	}
	code := d.Currency.Code
	if code == "" {
		code = types.Naira.Code
	}
	zero := types.Zero(code)

	return Record{
		Kind:         d.Kind,
		Number:       Number(d.Kind, now, 1),
		IssueDate:    now,
		DueDate:      now.AddDate(0, 0, d.DueInDays),
		PaymentTerms: d.PaymentTerms,
		Items: []LineItem{
			NewLineItem("1", d.Unit, code),
		},
		TaxRate:  d.TaxRate,
		Subtotal: zero,
		Tax:      zero,
		Total:    zero,
	}
}

// NewLineItem returns a blank row: one unit at zero rate.
func NewLineItem(itemID ItemID, unit, currency string) LineItem {
	return LineItem{
		ID:       itemID,
		Quantity: 1,
		Unit:     unit,
		Rate:     types.Zero(currency),
		Amount:   types.Zero(currency),
	}
}

// Issuer is the signing party printed under the signature.
type Issuer struct {
	Name    string `json:"name" yaml:"name"`
	Company string `json:"company" yaml:"company"`
}

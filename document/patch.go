package document

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/invoicer/types"
)

// Patch is a partial update of record fields. Nil fields are left alone.
type Patch struct {
	Kind         *Kind
	Client       ClientPatch
	Number       *string
	IssueDate    *time.Time
	DueDate      *time.Time
	PaymentTerms *string
	TaxRate      *decimal.Decimal
	Signature    *Signature

	// RemoveSignature clears the signature. It wins over Signature.
	RemoveSignature bool
}

// ClientPatch is a partial update of the client block.
type ClientPatch struct {
	Name    *string
	Company *string
	Address *string
	Email   *string
	Phone   *string
	Title   *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Kind == nil && p.Client.IsEmpty() && p.Number == nil &&
		p.IssueDate == nil && p.DueDate == nil && p.PaymentTerms == nil &&
		p.TaxRate == nil && p.Signature == nil && !p.RemoveSignature
}

// Fields lists the names of the fields the patch sets.
func (p Patch) Fields() []string {
	var f []string
	add := func(set bool, name string) {
		if set {
			f = append(f, name)
		}
	}
	add(p.Kind != nil, "kind")
	add(p.Client.Name != nil, "client.name")
	add(p.Client.Company != nil, "client.company")
	add(p.Client.Address != nil, "client.address")
	add(p.Client.Email != nil, "client.email")
	add(p.Client.Phone != nil, "client.phone")
	add(p.Client.Title != nil, "client.title")
	add(p.Number != nil, "number")
	add(p.IssueDate != nil, "issue_date")
	add(p.DueDate != nil, "due_date")
	add(p.PaymentTerms != nil, "payment_terms")
	add(p.TaxRate != nil, "tax_rate")
	add(p.Signature != nil || p.RemoveSignature, "signature")
	return f
}

// Merge copies the present fields into r. Kind-driven renumbering is left to
// the caller, which owns the clock. It reports whether Kind changed.
func (p Patch) Merge(r *Record) (kindChanged bool) {
	if p.Kind != nil && *p.Kind != r.Kind {
		r.Kind = *p.Kind
		kindChanged = true
	}
	p.Client.Merge(&r.Client)
	if p.Number != nil {
		r.Number = *p.Number
	}
	if p.IssueDate != nil {
		r.IssueDate = *p.IssueDate
	}
	if p.DueDate != nil {
		r.DueDate = *p.DueDate
	}
	if p.PaymentTerms != nil {
		r.PaymentTerms = *p.PaymentTerms
	}
	if p.TaxRate != nil {
		r.TaxRate = *p.TaxRate
	}
	switch {
	case p.RemoveSignature:
		r.Signature = nil
	case p.Signature != nil:
		sig := *p.Signature
		r.Signature = &sig
	}
	return kindChanged
}

// IsEmpty reports whether the patch changes nothing.
func (p ClientPatch) IsEmpty() bool {
	return p.Name == nil && p.Company == nil && p.Address == nil &&
		p.Email == nil && p.Phone == nil && p.Title == nil
}

// Merge copies the present fields into c.
func (p ClientPatch) Merge(c *Client) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
}

// ItemPatch is a partial update of one line item. Amount is not patchable.
type ItemPatch struct {
	Quantity    *int64
	Unit        *string
	Description *string
	Rate        *types.Money
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p.Quantity == nil && p.Unit == nil && p.Description == nil && p.Rate == nil
}

// Merge copies the present fields into li. Quantity is clamped to
// [0, MaxQuantity]. When Quantity or Rate is present the amount is
// recomputed from the merged values; otherwise it is kept.
func (p ItemPatch) Merge(li *LineItem) {
	if p.Quantity != nil {
		li.Quantity = min(max(*p.Quantity, 0), MaxQuantity)
	}
	if p.Unit != nil {
		li.Unit = *p.Unit
	}
	if p.Description != nil {
		li.Description = *p.Description
	}
	if p.Rate != nil {
		li.Rate = *p.Rate
	}
	if p.Quantity != nil || p.Rate != nil {
		li.Amount = li.Rate.Multiply(li.Quantity)
	}
}

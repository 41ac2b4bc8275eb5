package input

import (
	"fmt"

	"github.com/xraph/invoicer/document"
)

// Form is the wire shape of a record field update. Absent fields are left
// unchanged.
type Form struct {
	Kind            *string        `json:"kind,omitempty" yaml:"kind,omitempty"`
	Client          ClientForm     `json:"client" yaml:"client"`
	Number          *string        `json:"number,omitempty" yaml:"number,omitempty"`
	IssueDate       *string        `json:"issue_date,omitempty" yaml:"issue_date,omitempty"`
	DueDate         *string        `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	PaymentTerms    *string        `json:"payment_terms,omitempty" yaml:"payment_terms,omitempty"`
	TaxRate         *Value         `json:"tax_rate,omitempty" yaml:"tax_rate,omitempty"`
	Signature       *SignatureForm `json:"signature,omitempty" yaml:"signature,omitempty"`
	RemoveSignature bool           `json:"remove_signature,omitempty" yaml:"remove_signature,omitempty"`
}

// ClientForm is the wire shape of the client block.
type ClientForm struct {
	Name    *string `json:"name,omitempty" yaml:"name,omitempty"`
	Company *string `json:"company,omitempty" yaml:"company,omitempty"`
	Address *string `json:"address,omitempty" yaml:"address,omitempty"`
	Email   *string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone   *string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Title   *string `json:"title,omitempty" yaml:"title,omitempty"`
}

// SignatureForm carries a signature image as a data URL.
type SignatureForm struct {
	Origin string `json:"origin" yaml:"origin"`
	Image  string `json:"image" yaml:"image"`
}

// ItemForm is the wire shape of a line item update.
type ItemForm struct {
	ID          string  `json:"id,omitempty" yaml:"id,omitempty"`
	Quantity    *Value  `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Unit        *string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	Rate        *Value  `json:"rate,omitempty" yaml:"rate,omitempty"`
}

// Sheet is a whole document as written in a YAML or JSON file: the record
// fields plus its rows in order.
type Sheet struct {
	Form  `yaml:",inline"`
	Items []ItemForm `json:"items" yaml:"items"`
}

// Patch converts the form into a document patch. Numeric fields never fail;
// an unknown kind, a malformed date or a bad signature image does.
func (f Form) Patch() (document.Patch, error) {
	p := document.Patch{
		Client: document.ClientPatch{
			Name:    f.Client.Name,
			Company: f.Client.Company,
			Address: f.Client.Address,
			Email:   f.Client.Email,
			Phone:   f.Client.Phone,
			Title:   f.Client.Title,
		},
		Number:          f.Number,
		PaymentTerms:    f.PaymentTerms,
		RemoveSignature: f.RemoveSignature,
	}

	if f.Kind != nil {
		k, err := document.ParseKind(*f.Kind)
		if err != nil {
			return document.Patch{}, err
		}
		p.Kind = &k
	}
	if f.IssueDate != nil {
		t, err := Date(*f.IssueDate)
		if err != nil {
			return document.Patch{}, fmt.Errorf("issue_date: %w", err)
		}
		p.IssueDate = &t
	}
	if f.DueDate != nil {
		t, err := Date(*f.DueDate)
		if err != nil {
			return document.Patch{}, fmt.Errorf("due_date: %w", err)
		}
		p.DueDate = &t
	}
	if f.TaxRate != nil {
		rate := f.TaxRate.Percent()
		p.TaxRate = &rate
	}
	if f.Signature != nil && !f.RemoveSignature {
		sig, err := document.NewSignature(document.Origin(f.Signature.Origin), f.Signature.Image)
		if err != nil {
			return document.Patch{}, err
		}
		p.Signature = &sig
	}

	return p, nil
}

// Patch converts the item form into an item patch priced in currency.
func (f ItemForm) Patch(currency string) document.ItemPatch {
	p := document.ItemPatch{
		Unit:        f.Unit,
		Description: f.Description,
	}
	if f.Quantity != nil {
		q := f.Quantity.Quantity()
		p.Quantity = &q
	}
	if f.Rate != nil {
		r := f.Rate.Rate(currency)
		p.Rate = &r
	}
	return p
}

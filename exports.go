package invoicer

import (
	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Money constructors
var (
	NGN  = types.NGN
	Zero = types.Zero
	Sum  = types.Sum
)

// Re-export Entity constructor
var NewEntity = types.NewEntity

// Record, LineItem and View are re-exported from the document package.
type (
	Record   = document.Record
	LineItem = document.LineItem
	View     = document.View
	Kind     = document.Kind
)

// Document kinds.
const (
	KindInvoice   = document.KindInvoice
	KindQuotation = document.KindQuotation
)

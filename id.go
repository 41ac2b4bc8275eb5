package invoicer

import "github.com/xraph/invoicer/id"

// ID is the identifier type for sessions and exports.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

package document

import (
	"fmt"
	"time"
)

const dateStamp = "20060102"

// Number formats a document number: INV-20261019-001.
func Number(k Kind, date time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", k.Prefix(), date.Format(dateStamp), seq)
}

// Filename formats the export file name:
// Invoice_INV-20261019-001_20261019.pdf.
func Filename(k Kind, number string, issueDate time.Time) string {
	return fmt.Sprintf("%s_%s_%s.pdf", k.Label(), number, issueDate.Format(dateStamp))
}

// DisplayDate formats a date the way documents print it: 19/10/2026.
func DisplayDate(t time.Time) string {
	return t.Format("02/01/2006")
}

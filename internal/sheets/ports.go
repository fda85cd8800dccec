// Package sheets mirrors expenses into a spreadsheet for people who prefer
// to read their data there. The mirror is write-only and best effort.
package sheets

import (
	"context"

	"pocketspend/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseMirror keeps one row per expense, keyed by expense id in the
	// first column.
	ExpenseMirror interface {
		// MirrorExpense appends e and returns a reference to the written row.
		MirrorExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
		// RemoveExpense deletes the row for id. A missing row is not an error.
		RemoveExpense(ctx context.Context, id string) error
	}
)

// Header is the column layout of the mirror sheet.
var Header = []string{"ID", "Created At", "Name", "Amount", "Category", "Description"}

// Row renders e in Header order.
func Row(e core.Expense) []string {
	return []string{e.ID, e.CreatedAt, e.Name, e.Amount, e.Category, e.Description}
}

// Package remote declares the ports through which the stores reach the
// expense API. Adapters live in the rest and memory subpackages.
package remote

import (
	"context"
	"errors"

	"pocketspend/internal/core"
)

// ErrNotFound is returned when the referenced record does not exist remotely.
var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	UserLister interface {
		// ListUsers returns the full user collection.
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	ExpenseLister interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
	}

	// ExpenseCreator persists a new expense and returns the record as the
	// remote stored it, with ID and CreatedAt filled in.
	ExpenseCreator interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	}

	ExpenseDeleter interface {
		DeleteExpense(ctx context.Context, id string) error
	}

	ExpenseAPI interface {
		ExpenseLister
		ExpenseCreator
		ExpenseDeleter
	}

	// API is everything the client side needs from the remote.
	API interface {
		UserLister
		ExpenseAPI
	}
)

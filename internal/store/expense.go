package store

import (
	"context"
	"sync"
	"time"

	"pocketspend/internal/core"
	"pocketspend/internal/log"
	"pocketspend/internal/remote"
)

// Fallback messages for failures that carry no text.
const (
	MsgFetchExpensesFailed = "Failed to fetch expenses"
	MsgAddExpenseFailed    = "Failed to add expense"
	MsgDeleteExpenseFailed = "Failed to delete expense"
)

type ExpenseState struct {
	Expenses  []core.Expense
	IsLoading bool
	Error     string
}

// ExpenseStore caches the remote expense collection. Mutations are applied
// locally only after the remote acknowledges them. IsLoading is advisory:
// concurrent calls are not serialized and the last one to finish wins.
type ExpenseStore struct {
	api    remote.ExpenseAPI
	logger *log.Logger
	now    func() time.Time

	mu    sync.Mutex
	state ExpenseState
	subs  listeners[ExpenseState]
}

func NewExpenseStore(api remote.ExpenseAPI, opts ...Option) *ExpenseStore {
	o := buildOptions(opts)
	return &ExpenseStore{
		api:    api,
		logger: o.logger.WithComponent(log.ComponentExpense),
		now:    o.now,
	}
}

// State returns a snapshot; the Expenses slice is a copy in insertion order.
func (s *ExpenseStore) State() ExpenseState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ExpenseStore) Subscribe(fn func(ExpenseState)) (unsubscribe func()) {
	return s.subs.add(fn)
}

// FetchExpenses replaces the local list with the remote collection. On
// failure the previous list is kept and Error is set.
func (s *ExpenseStore) FetchExpenses(ctx context.Context) {
	s.begin()

	expenses, err := s.api.ListExpenses(ctx)
	if err != nil {
		s.fail(ctx, log.OpList, err, MsgFetchExpensesFailed)
		return
	}

	s.update(func(st *ExpenseState) {
		st.Expenses = append([]core.Expense(nil), expenses...)
		st.IsLoading = false
	})
	s.logger.DebugContext(ctx, "Expenses fetched",
		log.FieldOperation, log.OpList, log.FieldCount, len(expenses))
}

// AddExpense stamps the draft with the current time, sends it to the remote
// and appends the stored record. The error is returned as well as recorded.
func (s *ExpenseStore) AddExpense(ctx context.Context, d core.ExpenseDraft) (core.Expense, error) {
	s.begin()

	created, err := s.api.CreateExpense(ctx, core.Expense{
		Name:        d.Name,
		Amount:      d.Amount,
		Description: d.Description,
		Category:    d.Category,
		CreatedAt:   core.ISOTimestamp(s.now()),
	})
	if err != nil {
		s.fail(ctx, log.OpCreate, err, MsgAddExpenseFailed)
		return core.Expense{}, err
	}

	s.update(func(st *ExpenseState) {
		st.Expenses = append(st.Expenses, created)
		st.IsLoading = false
	})
	s.logger.InfoContext(ctx, "Expense created",
		log.NewFields().
			WithExpense(created.ID, created.Name, created.Amount, created.Category).
			WithOperation(log.OpCreate).
			ToSlice()...)
	return created, nil
}

// DeleteExpense removes the expense remotely, then locally.
func (s *ExpenseStore) DeleteExpense(ctx context.Context, id string) error {
	s.begin()

	if err := s.api.DeleteExpense(ctx, id); err != nil {
		s.fail(ctx, log.OpDelete, err, MsgDeleteExpenseFailed)
		return err
	}

	s.update(func(st *ExpenseState) {
		kept := st.Expenses[:0:0]
		for _, e := range st.Expenses {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		st.Expenses = kept
		st.IsLoading = false
	})
	s.logger.InfoContext(ctx, "Expense deleted",
		log.FieldExpenseID, id, log.FieldOperation, log.OpDelete)
	return nil
}

func (s *ExpenseStore) ClearError() {
	s.update(func(st *ExpenseState) { st.Error = "" })
}

func (s *ExpenseStore) begin() {
	s.update(func(st *ExpenseState) {
		st.IsLoading = true
		st.Error = ""
	})
}

func (s *ExpenseStore) fail(ctx context.Context, op string, err error, fallback string) {
	s.update(func(st *ExpenseState) {
		st.IsLoading = false
		st.Error = core.ErrorMessage(err, fallback)
	})
	s.logger.WarnContext(ctx, "Expense operation failed",
		log.FieldOperation, op, log.FieldError, err)
}

func (s *ExpenseStore) update(fn func(*ExpenseState)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.subs.notify(snap)
}

func (s *ExpenseStore) snapshotLocked() ExpenseState {
	st := s.state
	st.Expenses = append([]core.Expense(nil), st.Expenses...)
	return st
}

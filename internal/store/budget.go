package store

import (
	"context"
	"strconv"
	"sync"

	"pocketspend/internal/core"
	"pocketspend/internal/log"
	"pocketspend/internal/persist"
)

type BudgetState struct {
	Budgets []core.Budget `json:"budgets"`
}

// BudgetStore owns the budget definitions. Every operation is local and
// synchronous; the list is persisted after each change.
//
// Categories are not unique. UpdateSpent increments every budget with a
// matching category while IsBudgetExceeded looks at the first match only.
type BudgetStore struct {
	logger *log.Logger
	newID  func() string

	mu    sync.Mutex
	state BudgetState
	seq   uint64

	persister *persister[BudgetState]
	subs      listeners[BudgetState]
}

// NewBudgetStore builds an empty store. A nil storage disables persistence.
func NewBudgetStore(storage persist.Storage, opts ...Option) *BudgetStore {
	o := buildOptions(opts)
	logger := o.logger.WithComponent(log.ComponentBudget)
	return &BudgetStore{
		logger:    logger,
		newID:     o.newID,
		persister: newPersister[BudgetState](storage, persist.BudgetKey, logger),
	}
}

func (s *BudgetStore) State() BudgetState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Budgets is shorthand for State().Budgets.
func (s *BudgetStore) Budgets() []core.Budget {
	return s.State().Budgets
}

func (s *BudgetStore) Subscribe(fn func(BudgetState)) (unsubscribe func()) {
	return s.subs.add(fn)
}

// AddBudget appends a budget with a fresh id and zero spend.
func (s *BudgetStore) AddBudget(d core.BudgetDraft) core.Budget {
	var b core.Budget
	s.update(func(st *BudgetState) bool {
		b = core.Budget{
			ID:       s.uniqueIDLocked(),
			Category: d.Category,
			Limit:    d.Limit,
			Period:   d.Period,
		}
		st.Budgets = append(st.Budgets, b)
		return true
	})
	s.logger.Info("Budget created",
		log.NewFields().WithBudget(b.ID, b.Category).WithOperation(log.OpCreate).ToSlice()...)
	return b
}

// UpdateBudget merges patch into the budget with the given id. It reports
// whether such a budget exists.
func (s *BudgetStore) UpdateBudget(id string, patch core.BudgetPatch) bool {
	found := s.update(func(st *BudgetState) bool {
		for i := range st.Budgets {
			if st.Budgets[i].ID == id {
				st.Budgets[i] = patch.Apply(st.Budgets[i])
				return true
			}
		}
		return false
	})
	if found {
		s.logger.Debug("Budget updated", log.FieldBudgetID, id, log.FieldOperation, log.OpUpdate)
	}
	return found
}

// DeleteBudget removes the budget with the given id, if any.
func (s *BudgetStore) DeleteBudget(id string) bool {
	found := s.update(func(st *BudgetState) bool {
		for i := range st.Budgets {
			if st.Budgets[i].ID == id {
				st.Budgets = append(st.Budgets[:i], st.Budgets[i+1:]...)
				return true
			}
		}
		return false
	})
	if found {
		s.logger.Info("Budget deleted", log.FieldBudgetID, id, log.FieldOperation, log.OpDelete)
	}
	return found
}

// UpdateSpent adds amount to every budget whose category equals category
// exactly. Negative amounts are ignored so spent never decreases.
func (s *BudgetStore) UpdateSpent(category string, amount float64) {
	if amount < 0 {
		s.logger.Warn("Ignoring negative spend",
			log.FieldCategory, category, log.FieldAmount, amount)
		return
	}
	var matched int
	s.update(func(st *BudgetState) bool {
		for i := range st.Budgets {
			if st.Budgets[i].Category == category {
				st.Budgets[i].Spent += amount
				matched++
			}
		}
		return matched > 0
	})
	s.logger.Debug("Spend recorded",
		log.FieldCategory, category,
		log.FieldAmount, amount,
		log.FieldCount, matched)
}

// IsBudgetExceeded reports whether the first budget for category has spent
// strictly more than its limit. It is false when no budget matches.
func (s *BudgetStore) IsBudgetExceeded(category string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.state.Budgets {
		if b.Category == category {
			return b.Exceeded()
		}
	}
	return false
}

// Rehydrate replaces the list with the persisted one, if present.
func (s *BudgetStore) Rehydrate(ctx context.Context) error {
	rec, ok, err := s.persister.load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to rehydrate budgets",
			log.FieldOperation, log.OpRehydrate, log.FieldError, err)
		return err
	}
	if !ok {
		return nil
	}

	s.mu.Lock()
	s.state.Budgets = sanitizeBudgets(rec.Budgets)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subs.notify(snap)
	s.logger.DebugContext(ctx, "Budgets rehydrated",
		log.FieldOperation, log.OpRehydrate, log.FieldCount, len(snap.Budgets))
	return nil
}

func (s *BudgetStore) Flush() {
	s.persister.flush()
}

// update applies fn and, when it reports a change, persists and notifies.
func (s *BudgetStore) update(fn func(*BudgetState) bool) bool {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	s.seq++
	seq := s.seq
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persister.save(seq, snap)
	s.subs.notify(BudgetState{Budgets: append([]core.Budget(nil), snap.Budgets...)})
	return true
}

func (s *BudgetStore) snapshotLocked() BudgetState {
	return BudgetState{Budgets: append([]core.Budget(nil), s.state.Budgets...)}
}

// uniqueIDLocked draws ids until one is not already taken.
func (s *BudgetStore) uniqueIDLocked() string {
	taken := make(map[string]struct{}, len(s.state.Budgets))
	for _, b := range s.state.Budgets {
		taken[b.ID] = struct{}{}
	}
	id := s.newID()
	for n := 1; ; n++ {
		if _, dup := taken[id]; !dup && id != "" {
			return id
		}
		if n < 8 {
			id = s.newID()
		} else {
			id = s.newID() + "-" + strconv.Itoa(n)
		}
	}
}

// sanitizeBudgets clamps negative spend picked up from storage.
func sanitizeBudgets(in []core.Budget) []core.Budget {
	out := append([]core.Budget(nil), in...)
	for i := range out {
		if out[i].Spent < 0 {
			out[i].Spent = 0
		}
	}
	return out
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pocketspend/internal/core"
	"pocketspend/internal/log"
	"pocketspend/internal/store"
)

// Notification texts.
const (
	MsgExpenseAdded       = "Expense added successfully"
	MsgExpenseAddFailed   = "Failed to add expense"
	MsgExpenseDeleted     = "Expense deleted successfully"
	MsgExpenseDeleteError = "Failed to delete expense"
	MsgBudgetCreated      = "Budget created successfully"
	MsgBudgetCreateFailed = "Failed to create budget"
	MsgBudgetUpdated      = "Budget updated successfully"
	MsgBudgetUpdateFailed = "Failed to update budget"
	MsgBudgetDeleted      = "Budget deleted successfully"
	MsgBudgetDeleteFailed = "Failed to delete budget"
)

var (
	ErrLoginFailed    = errors.New("login failed")
	ErrBudgetNotFound = errors.New("budget not found")
)

// ActivityPublisher announces expense changes to other processes.
type ActivityPublisher interface {
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
	PublishExpenseDeleted(ctx context.Context, id string) error
}

// Stores groups the state containers the service sequences.
type Stores struct {
	Auth     *store.AuthStore
	Expenses *store.ExpenseStore
	Budgets  *store.BudgetStore
	Toasts   *store.ToastStore
}

type (
	ExpenseForm struct {
		Name        string
		Amount      string
		Description string
		Category    string
	}

	// BudgetForm holds raw form input. On update, empty fields are left
	// unchanged. On create, an empty period means monthly.
	BudgetForm struct {
		Category string
		Limit    string
		Period   core.Period
	}

	AddExpenseResult struct {
		Expense        core.Expense
		BudgetExceeded bool
	}

	BudgetView struct {
		Budget   core.Budget
		Progress core.BudgetProgress
	}
)

// FinanceService runs the multi-store flows: validate, call the owning
// store, update budgets, notify, announce.
type FinanceService struct {
	auth      *store.AuthStore
	expenses  *store.ExpenseStore
	budgets   *store.BudgetStore
	toasts    *store.ToastStore
	publisher ActivityPublisher
	logger    *log.Logger
}

// NewFinanceService wires the stores together. publisher may be nil.
func NewFinanceService(st Stores, publisher ActivityPublisher, logger *log.Logger) *FinanceService {
	return &FinanceService{
		auth:      st.Auth,
		expenses:  st.Expenses,
		budgets:   st.Budgets,
		toasts:    st.Toasts,
		publisher: publisher,
		logger:    log.OrNop(logger).WithComponent(log.ComponentFinance),
	}
}

// Login validates the form and attempts a login. A failure is shown as an
// error toast and cleared from the session.
func (s *FinanceService) Login(ctx context.Context, username, password string) error {
	if err := core.ValidateLoginForm(username, password); err != nil {
		return err
	}

	s.auth.Login(ctx, username, password)

	if msg := s.auth.State().Error; msg != "" {
		s.toasts.ShowToast(msg, core.ToastError)
		s.auth.ClearError()
		return fmt.Errorf("%w: %s", ErrLoginFailed, msg)
	}
	return nil
}

func (s *FinanceService) Logout() {
	s.auth.Logout()
}

// AddExpense records a new expense. When the form names a category the
// matching budgets are charged and a warning is shown if the first of them
// is now exceeded. The warning is shown last so it stays on screen.
func (s *FinanceService) AddExpense(ctx context.Context, form ExpenseForm) (AddExpenseResult, error) {
	draft := core.ExpenseDraft{
		Name:        form.Name,
		Amount:      strings.TrimSpace(form.Amount),
		Description: form.Description,
		Category:    form.Category,
	}
	if err := core.ValidateExpenseForm(draft); err != nil {
		return AddExpenseResult{}, err
	}

	hasCategory := core.ValidateRequired(form.Category)
	if !hasCategory {
		draft.Category = core.UncategorizedLabel
	}

	created, err := s.expenses.AddExpense(ctx, draft)
	if err != nil {
		s.toasts.ShowToast(MsgExpenseAddFailed, core.ToastError)
		return AddExpenseResult{}, fmt.Errorf("add expense: %w", err)
	}

	res := AddExpenseResult{Expense: created}
	s.toasts.ShowToast(MsgExpenseAdded, core.ToastSuccess)

	if hasCategory {
		amount, _ := strconv.ParseFloat(draft.Amount, 64)
		s.budgets.UpdateSpent(form.Category, amount)
		if s.budgets.IsBudgetExceeded(form.Category) {
			res.BudgetExceeded = true
			s.toasts.ShowToast(fmt.Sprintf("Budget exceeded for %s!", form.Category), core.ToastWarning)
			s.logger.WarnContext(ctx, "Budget exceeded",
				log.FieldCategory, form.Category,
				log.FieldExpenseID, created.ID)
		}
	}

	if err := s.publishCreated(ctx, created); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense activity",
			log.FieldExpenseID, created.ID,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err)
	}
	return res, nil
}

// DeleteExpense removes an expense. Budget spend is left as it was.
func (s *FinanceService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.expenses.DeleteExpense(ctx, id); err != nil {
		s.toasts.ShowToast(MsgExpenseDeleteError, core.ToastError)
		return fmt.Errorf("delete expense: %w", err)
	}
	s.toasts.ShowToast(MsgExpenseDeleted, core.ToastSuccess)

	if err := s.publishDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense activity",
			log.FieldExpenseID, id,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err)
	}
	return nil
}

func (s *FinanceService) CreateBudget(form BudgetForm) (core.Budget, error) {
	period := form.Period
	if period == "" {
		period = core.Monthly
	}
	limit, err := core.ValidateBudgetForm(form.Category, form.Limit, period)
	if err != nil {
		return core.Budget{}, err
	}

	b := s.budgets.AddBudget(core.BudgetDraft{Category: form.Category, Limit: limit, Period: period})
	s.toasts.ShowToast(MsgBudgetCreated, core.ToastSuccess)
	return b, nil
}

// UpdateBudget applies the non-empty fields of form to the budget.
func (s *FinanceService) UpdateBudget(id string, form BudgetForm) (core.Budget, error) {
	patch, err := core.ValidateBudgetPatch(form.Category, form.Limit, form.Period)
	if err != nil {
		return core.Budget{}, err
	}

	if !s.budgets.UpdateBudget(id, patch) {
		s.toasts.ShowToast(MsgBudgetUpdateFailed, core.ToastError)
		return core.Budget{}, fmt.Errorf("update budget %s: %w", id, ErrBudgetNotFound)
	}
	s.toasts.ShowToast(MsgBudgetUpdated, core.ToastSuccess)

	for _, b := range s.budgets.Budgets() {
		if b.ID == id {
			return b, nil
		}
	}
	return core.Budget{}, fmt.Errorf("update budget %s: %w", id, ErrBudgetNotFound)
}

func (s *FinanceService) DeleteBudget(id string) error {
	if !s.budgets.DeleteBudget(id) {
		s.toasts.ShowToast(MsgBudgetDeleteFailed, core.ToastError)
		return fmt.Errorf("delete budget %s: %w", id, ErrBudgetNotFound)
	}
	s.toasts.ShowToast(MsgBudgetDeleted, core.ToastSuccess)
	return nil
}

// Budgets lists every budget with its display progress.
func (s *FinanceService) Budgets() []BudgetView {
	budgets := s.budgets.Budgets()
	out := make([]BudgetView, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, BudgetView{Budget: b, Progress: core.Progress(b)})
	}
	return out
}

// Dashboard summarizes the current data, fetching expenses first when
// refresh is set. A failed fetch leaves the cached list in use.
func (s *FinanceService) Dashboard(ctx context.Context, refresh bool) core.Dashboard {
	if refresh {
		s.expenses.FetchExpenses(ctx)
	}
	return core.BuildDashboard(s.expenses.State().Expenses, s.budgets.Budgets())
}

// SearchExpenses filters the cached expenses by query, newest first.
func (s *FinanceService) SearchExpenses(query string) []core.Expense {
	return core.SortByRecency(core.FilterExpenses(s.expenses.State().Expenses, query))
}

func (s *FinanceService) publishCreated(ctx context.Context, e core.Expense) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Activity publisher not available, skipping message")
		return nil
	}
	return s.publisher.PublishExpenseCreated(ctx, e)
}

func (s *FinanceService) publishDeleted(ctx context.Context, id string) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Activity publisher not available, skipping message")
		return nil
	}
	return s.publisher.PublishExpenseDeleted(ctx, id)
}

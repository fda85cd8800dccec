package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketspend/internal/core"
	"pocketspend/internal/persist"
	"pocketspend/internal/remote/memory"
	"pocketspend/internal/store"
)

type recordingPublisher struct {
	mu      sync.Mutex
	created []core.Expense
	deleted []string
	err     error
}

func (p *recordingPublisher) PublishExpenseCreated(_ context.Context, e core.Expense) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, e)
	return p.err
}

func (p *recordingPublisher) PublishExpenseDeleted(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, id)
	return p.err
}

type fixture struct {
	remote    *memory.Remote
	stores    Stores
	timers    *store.ManualTimers
	publisher *recordingPublisher
	svc       *FinanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := memory.New([]core.User{{ID: "1", Username: "alice", Email: "alice@example.com", Name: "Alice"}})
	r.SetClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) })
	timers := store.NewManualTimers()
	storage := persist.NewMemoryStorage()
	now := func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

	st := Stores{
		Auth:     store.NewAuthStore(r, storage),
		Expenses: store.NewExpenseStore(r, store.WithClock(now)),
		Budgets:  store.NewBudgetStore(storage),
		Toasts:   store.NewToastStore(store.WithTimers(timers)),
	}
	pub := &recordingPublisher{}
	return &fixture{
		remote:    r,
		stores:    st,
		timers:    timers,
		publisher: pub,
		svc:       NewFinanceService(st, pub, nil),
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Login(ctx, "alice", "secret1"))
	assert.True(t, f.stores.Auth.State().IsAuthenticated)

	f.svc.Logout()
	assert.False(t, f.stores.Auth.State().IsAuthenticated)
}

func TestLoginValidationSkipsRemote(t *testing.T) {
	f := newFixture(t)
	f.remote.FailWith(errors.New("must not be called"))

	err := f.svc.Login(context.Background(), "al", "secret1")
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, core.MsgUsernameTooShort, verr.Field("username"))
	assert.Empty(t, f.stores.Auth.State().Error)
}

func TestLoginFailureBecomesToast(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Login(context.Background(), "ghost", "secret1")
	require.ErrorIs(t, err, ErrLoginFailed)
	assert.Contains(t, err.Error(), "User not found")

	toast := f.stores.Toasts.State()
	assert.Equal(t, store.ToastState{Message: "User not found", Type: core.ToastError, Visible: true}, toast)
	assert.Empty(t, f.stores.Auth.State().Error, "error is cleared once shown")
}

func TestAddExpenseWithinBudget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateBudget(BudgetForm{Category: "Food", Limit: "100"})
	require.NoError(t, err)

	res, err := f.svc.AddExpense(ctx, ExpenseForm{Name: "Lunch", Amount: "12.50", Description: "ramen", Category: "Food"})
	require.NoError(t, err)

	assert.False(t, res.BudgetExceeded)
	assert.Equal(t, "1", res.Expense.ID)
	assert.Equal(t, "2024-05-01T09:00:00.000Z", res.Expense.CreatedAt)
	assert.Equal(t, 12.5, f.stores.Budgets.Budgets()[0].Spent)
	assert.Equal(t, MsgExpenseAdded, f.stores.Toasts.State().Message)
	require.Len(t, f.publisher.created, 1)
	assert.Equal(t, "1", f.publisher.created[0].ID)
}

func TestAddExpenseExceedingBudgetShowsWarningLast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateBudget(BudgetForm{Category: "Food", Limit: "10", Period: core.Daily})
	require.NoError(t, err)

	res, err := f.svc.AddExpense(ctx, ExpenseForm{Name: "Dinner", Amount: "25", Description: "pizza", Category: "Food"})
	require.NoError(t, err)

	assert.True(t, res.BudgetExceeded)
	toast := f.stores.Toasts.State()
	assert.Equal(t, "Budget exceeded for Food!", toast.Message)
	assert.Equal(t, core.ToastWarning, toast.Type)

	f.timers.Advance(store.DefaultToastDuration)
	assert.False(t, f.stores.Toasts.State().Visible)
}

func TestAddExpenseWithoutCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateBudget(BudgetForm{Category: core.UncategorizedLabel, Limit: "1"})
	require.NoError(t, err)

	res, err := f.svc.AddExpense(ctx, ExpenseForm{Name: "Gift", Amount: "50", Description: "birthday"})
	require.NoError(t, err)

	assert.Equal(t, core.UncategorizedLabel, res.Expense.Category)
	assert.False(t, res.BudgetExceeded)
	assert.Zero(t, f.stores.Budgets.Budgets()[0].Spent, "no category entered, no budget charged")
}

func TestAddExpenseValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddExpense(context.Background(), ExpenseForm{Name: "", Amount: "12.555", Description: ""})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
	assert.Empty(t, f.stores.Expenses.State().Expenses)
	assert.False(t, f.stores.Toasts.State().Visible)
}

func TestAddExpenseRemoteFailure(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateBudget(BudgetForm{Category: "Food", Limit: "10"})
	require.NoError(t, err)
	f.remote.FailWith(errors.New("Network Error"))

	_, err = f.svc.AddExpense(context.Background(), ExpenseForm{Name: "x", Amount: "20", Description: "y", Category: "Food"})

	require.Error(t, err)
	assert.True(t, core.IsTransport(err))
	assert.Empty(t, f.stores.Expenses.State().Expenses)
	assert.Zero(t, f.stores.Budgets.Budgets()[0].Spent)
	assert.Equal(t, MsgExpenseAddFailed, f.stores.Toasts.State().Message)
	assert.Empty(t, f.publisher.created)
}

func TestAddExpensePublishFailureIsNotReturned(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	_, err := f.svc.AddExpense(context.Background(), ExpenseForm{Name: "x", Amount: "1", Description: "y"})
	assert.NoError(t, err)
}

func TestAddExpenseWithoutPublisher(t *testing.T) {
	f := newFixture(t)
	svc := NewFinanceService(f.stores, nil, nil)

	_, err := svc.AddExpense(context.Background(), ExpenseForm{Name: "x", Amount: "1", Description: "y"})
	assert.NoError(t, err)
}

// Deleting an expense leaves the budget's spent untouched. This is a known
// gap: spend only ever grows.
func TestDeleteExpenseDoesNotReverseBudgetSpend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateBudget(BudgetForm{Category: "Food", Limit: "100"})
	require.NoError(t, err)
	res, err := f.svc.AddExpense(ctx, ExpenseForm{Name: "x", Amount: "40", Description: "y", Category: "Food"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteExpense(ctx, res.Expense.ID))

	assert.Empty(t, f.stores.Expenses.State().Expenses)
	assert.Equal(t, 40.0, f.stores.Budgets.Budgets()[0].Spent)
	assert.Equal(t, MsgExpenseDeleted, f.stores.Toasts.State().Message)
	assert.Equal(t, []string{res.Expense.ID}, f.publisher.deleted)
}

func TestDeleteExpenseFailure(t *testing.T) {
	f := newFixture(t)

	err := f.svc.DeleteExpense(context.Background(), "404")
	require.Error(t, err)
	assert.Equal(t, MsgExpenseDeleteError, f.stores.Toasts.State().Message)
	assert.Equal(t, core.ToastError, f.stores.Toasts.State().Type)
	assert.Empty(t, f.publisher.deleted)
}

func TestCreateBudget(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBudget(BudgetForm{Category: "Travel", Limit: "300.5"})
	require.NoError(t, err)
	assert.Equal(t, core.Monthly, b.Period)
	assert.Equal(t, 300.5, b.Limit)
	assert.Equal(t, MsgBudgetCreated, f.stores.Toasts.State().Message)

	_, err = f.svc.CreateBudget(BudgetForm{Category: "", Limit: "abc"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, core.MsgCategoryRequired, verr.Field("category"))
	assert.Equal(t, core.MsgInvalidAmount, verr.Field("limit"))
	assert.Len(t, f.stores.Budgets.Budgets(), 1)
}

func TestUpdateAndDeleteBudget(t *testing.T) {
	f := newFixture(t)
	b, err := f.svc.CreateBudget(BudgetForm{Category: "Travel", Limit: "300"})
	require.NoError(t, err)

	updated, err := f.svc.UpdateBudget(b.ID, BudgetForm{Limit: "450", Period: core.Weekly})
	require.NoError(t, err)
	assert.Equal(t, "Travel", updated.Category)
	assert.Equal(t, 450.0, updated.Limit)
	assert.Equal(t, core.Weekly, updated.Period)
	assert.Equal(t, MsgBudgetUpdated, f.stores.Toasts.State().Message)

	_, err = f.svc.UpdateBudget("missing", BudgetForm{Limit: "1"})
	assert.ErrorIs(t, err, ErrBudgetNotFound)

	_, err = f.svc.UpdateBudget(b.ID, BudgetForm{Period: "yearly"})
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, f.svc.DeleteBudget(b.ID))
	assert.Equal(t, MsgBudgetDeleted, f.stores.Toasts.State().Message)
	assert.ErrorIs(t, f.svc.DeleteBudget(b.ID), ErrBudgetNotFound)
	assert.Equal(t, MsgBudgetDeleteFailed, f.stores.Toasts.State().Message)
}

func TestDashboardAndSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.Seed(
		core.Expense{Name: "Coffee", Amount: "3.50", Description: "morning", CreatedAt: "2024-04-01T08:00:00.000Z"},
		core.Expense{Name: "Books", Amount: "20", Description: "novel", CreatedAt: "2024-04-03T08:00:00.000Z"},
		core.Expense{Name: "Groceries", Amount: "45.25", Description: "coffee beans", CreatedAt: "2024-04-02T08:00:00.000Z"},
		core.Expense{Name: "Taxi", Amount: "15", Description: "airport", CreatedAt: "2024-04-04T08:00:00.000Z"},
	)
	b, err := f.svc.CreateBudget(BudgetForm{Category: "Food", Limit: "10"})
	require.NoError(t, err)
	f.stores.Budgets.UpdateSpent("Food", 11)

	d := f.svc.Dashboard(ctx, true)
	assert.Equal(t, int64(8375), d.TotalSpent.Cents)
	require.Len(t, d.Recent, 3)
	assert.Equal(t, "Taxi", d.Recent[0].Name)
	require.Len(t, d.Exceeding, 1)
	assert.Equal(t, b.ID, d.Exceeding[0].ID)

	found := f.svc.SearchExpenses("COFFEE")
	require.Len(t, found, 2)
	assert.Equal(t, "Groceries", found[0].Name)
	assert.Equal(t, "Coffee", found[1].Name)

	views := f.svc.Budgets()
	require.Len(t, views, 1)
	assert.Equal(t, core.ProgressExceeded, views[0].Progress.Level)
}

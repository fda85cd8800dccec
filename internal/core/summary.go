package core

import (
	"math"
	"sort"
	"strings"
)

// ProgressLevel buckets a budget's consumption for display.
type ProgressLevel string

const (
	ProgressOK       ProgressLevel = "ok"
	ProgressWarning  ProgressLevel = "warning"
	ProgressExceeded ProgressLevel = "exceeded"
)

// RecentCount is how many expenses the dashboard lists.
const RecentCount = 3

// BudgetProgress is the fill percentage of a budget, capped at 100.
type BudgetProgress struct {
	Percent float64
	Level   ProgressLevel
}

// Dashboard is the compact summary shown on the home screen.
type Dashboard struct {
	TotalSpent Money
	Recent     []Expense
	Exceeding  []Budget
}

// TotalSpent sums expense amounts. Amounts that do not parse are skipped.
func TotalSpent(expenses []Expense) Money {
	var total Money
	for _, e := range expenses {
		cents, err := ParseDecimalToCents(e.Amount)
		if err != nil {
			continue
		}
		total = total.Add(Money{Cents: cents})
	}
	return total
}

// SortByRecency returns a copy ordered newest first. Records without a
// readable timestamp sink to the end, keeping their relative order.
func SortByRecency(expenses []Expense) []Expense {
	out := make([]Expense, len(expenses))
	copy(out, expenses)
	sort.SliceStable(out, func(i, j int) bool {
		ti, okI := out[i].CreatedTime()
		tj, okJ := out[j].CreatedTime()
		if okI != okJ {
			return okI
		}
		return ti.After(tj)
	})
	return out
}

// RecentExpenses returns the n newest expenses.
func RecentExpenses(expenses []Expense, n int) []Expense {
	sorted := SortByRecency(expenses)
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// FilterExpenses keeps expenses whose name or description contains query,
// ignoring case. An empty query keeps everything.
func FilterExpenses(expenses []Expense, query string) []Expense {
	q := strings.ToLower(query)
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Description), q) {
			out = append(out, e)
		}
	}
	return out
}

// ExceedingBudgets lists every budget whose spent is over its limit.
func ExceedingBudgets(budgets []Budget) []Budget {
	var out []Budget
	for _, b := range budgets {
		if b.Exceeded() {
			out = append(out, b)
		}
	}
	return out
}

// Progress computes the display progress of b.
func Progress(b Budget) BudgetProgress {
	var pct float64
	switch {
	case b.Limit > 0:
		pct = math.Min(b.Spent*100/b.Limit, 100)
	case b.Spent > 0:
		pct = 100
	}
	level := ProgressOK
	switch {
	case pct >= 100:
		level = ProgressExceeded
	case pct >= 75:
		level = ProgressWarning
	}
	return BudgetProgress{Percent: pct, Level: level}
}

// BuildDashboard derives the home screen summary.
func BuildDashboard(expenses []Expense, budgets []Budget) Dashboard {
	return Dashboard{
		TotalSpent: TotalSpent(expenses),
		Recent:     RecentExpenses(expenses, RecentCount),
		Exceeding:  ExceedingBudgets(budgets),
	}
}

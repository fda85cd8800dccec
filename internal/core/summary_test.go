package core

import "testing"

func sampleExpenses() []Expense {
	return []Expense{
		{ID: "1", Name: "Coffee", Amount: "3.50", Description: "Morning latte", CreatedAt: "2025-01-01T08:00:00.000Z"},
		{ID: "2", Name: "Train", Amount: "12", Description: "Commute", CreatedAt: "2025-01-03T08:00:00.000Z"},
		{ID: "3", Name: "Books", Amount: "20.25", Description: "Go in Action", CreatedAt: "2025-01-02T08:00:00.000Z"},
		{ID: "4", Name: "Mystery", Amount: "oops", Description: "bad data", CreatedAt: "not a date"},
		{ID: "5", Name: "Snack", Amount: "1.10", Description: "COFFEE beans", CreatedAt: "2025-01-04T08:00:00.000Z"},
	}
}

func TestTotalSpent(t *testing.T) {
	got := TotalSpent(sampleExpenses())
	if got.Cents != 3685 {
		t.Fatalf("expected 3685 cents, got %d", got.Cents)
	}
}

func TestSortByRecency(t *testing.T) {
	in := sampleExpenses()
	sorted := SortByRecency(in)
	want := []string{"5", "2", "3", "1", "4"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, sorted[i].ID)
		}
	}
	if in[0].ID != "1" {
		t.Fatalf("input must not be reordered")
	}
}

func TestRecentExpenses(t *testing.T) {
	recent := RecentExpenses(sampleExpenses(), RecentCount)
	if len(recent) != 3 || recent[0].ID != "5" || recent[2].ID != "3" {
		t.Fatalf("unexpected recent list: %+v", recent)
	}
	if got := RecentExpenses(sampleExpenses()[:1], RecentCount); len(got) != 1 {
		t.Fatalf("expected a single expense, got %d", len(got))
	}
}

func TestFilterExpenses(t *testing.T) {
	got := FilterExpenses(sampleExpenses(), "coffee")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "5" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	if all := FilterExpenses(sampleExpenses(), ""); len(all) != 5 {
		t.Fatalf("empty query should keep all, got %d", len(all))
	}
}

func TestProgress(t *testing.T) {
	cases := []struct {
		spent, limit float64
		pct          float64
		level        ProgressLevel
	}{
		{0, 100, 0, ProgressOK},
		{74, 100, 74, ProgressOK},
		{75, 100, 75, ProgressWarning},
		{100, 100, 100, ProgressExceeded},
		{250, 100, 100, ProgressExceeded},
		{5, 0, 100, ProgressExceeded},
		{0, 0, 0, ProgressOK},
	}
	for _, tc := range cases {
		got := Progress(Budget{Spent: tc.spent, Limit: tc.limit})
		if got.Percent != tc.pct || got.Level != tc.level {
			t.Fatalf("spent=%v limit=%v: got %+v", tc.spent, tc.limit, got)
		}
	}
}

func TestBuildDashboard(t *testing.T) {
	budgets := []Budget{
		{ID: "a", Category: "Food", Limit: 10, Spent: 10},
		{ID: "b", Category: "Travel", Limit: 10, Spent: 10.5},
	}
	d := BuildDashboard(sampleExpenses(), budgets)
	if d.TotalSpent.Cents != 3685 || len(d.Recent) != 3 {
		t.Fatalf("unexpected dashboard: %+v", d)
	}
	if len(d.Exceeding) != 1 || d.Exceeding[0].ID != "b" {
		t.Fatalf("expected only the strictly exceeded budget, got %+v", d.Exceeding)
	}
}

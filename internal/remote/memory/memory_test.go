package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pocketspend/internal/core"
	"pocketspend/internal/remote"
)

func TestRemoteCreateListDelete(t *testing.T) {
	ctx := context.Background()
	r := New(nil)
	r.SetClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) })

	created, err := r.CreateExpense(ctx, core.Expense{Name: "Lunch", Amount: "12.50", Description: "noodles"})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if created.ID != "1" || created.CreatedAt != "2024-01-02T03:04:05.000Z" {
		t.Fatalf("unexpected created record: %+v", created)
	}

	list, _ := r.ListExpenses(ctx)
	if len(list) != 1 || list[0].ID != "1" {
		t.Fatalf("unexpected list: %+v", list)
	}

	if err := r.DeleteExpense(ctx, "1"); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if err := r.DeleteExpense(ctx, "1"); !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestRemoteKeepsProvidedCreatedAt(t *testing.T) {
	r := New(nil)
	got, _ := r.CreateExpense(context.Background(), core.Expense{Name: "x", Amount: "1", CreatedAt: "2023-05-01T00:00:00.000Z"})
	if got.CreatedAt != "2023-05-01T00:00:00.000Z" {
		t.Errorf("CreatedAt overwritten: %q", got.CreatedAt)
	}
}

func TestRemoteFailWith(t *testing.T) {
	ctx := context.Background()
	r := New([]core.User{{ID: "1", Username: "alice"}})
	r.FailWith(errors.New("Network Error"))

	_, err := r.ListUsers(ctx)
	if !core.IsTransport(err) || err.Error() != "Network Error" {
		t.Fatalf("ListUsers error = %v", err)
	}
	if _, err := r.CreateExpense(ctx, core.Expense{}); !core.IsTransport(err) {
		t.Fatalf("CreateExpense error = %v", err)
	}

	r.FailWith(nil)
	users, err := r.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("after reset: users=%v err=%v", users, err)
	}
}

func TestNewFromFilesSeedsUsers(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	users, _ := s.ListUsers(context.Background())
	if len(users) == 0 {
		t.Fatalf("expected default user when seed file missing")
	}

	content := "# username,email,name\nalice,alice@example.com,Alice Liddell\n\nbob\nalice,dupe@example.com,Dupe\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_users.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s = NewFromFiles(dir)
	users, _ = s.ListUsers(context.Background())
	if len(users) != 2 {
		t.Fatalf("unexpected users: %+v", users)
	}
	if users[0].Username != "alice" || users[0].Email != "alice@example.com" || users[0].Name != "Alice Liddell" {
		t.Errorf("unexpected first user: %+v", users[0])
	}
	if users[1].Username != "bob" || users[1].ID != "2" {
		t.Errorf("unexpected second user: %+v", users[1])
	}
}

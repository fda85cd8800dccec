// Package memory is an in-process stand-in for the expense API, used for
// local development and tests.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"pocketspend/internal/core"
	"pocketspend/internal/remote"
)

type Remote struct {
	mu       sync.Mutex
	users    []core.User
	expenses []core.Expense
	nextID   int
	now      func() time.Time
	failErr  error
}

var _ remote.API = (*Remote)(nil)

func New(users []core.User) *Remote {
	return &Remote{
		users:  append([]core.User(nil), users...),
		nextID: 1,
		now:    time.Now,
	}
}

// NewFromFiles seeds users from seed_users.txt in base. Each line is
// "username,email,name"; blank lines and # comments are skipped.
func NewFromFiles(base string) *Remote {
	users := ReadSeedUsers(filepath.Join(base, "seed_users.txt"))
	if len(users) == 0 {
		users = []core.User{
			{ID: "1", Username: "demo", Email: "demo@example.com", Name: "Demo User"},
		}
	}
	return New(users)
}

// SetClock replaces the time source used for createdAt.
func (r *Remote) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// FailWith makes every subsequent call return err. A nil err restores
// normal operation.
func (r *Remote) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failErr = err
}

// Seed appends expenses as if they had been created earlier.
func (r *Remote) Seed(expenses ...core.Expense) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range expenses {
		if e.ID == "" {
			e.ID = r.allocID()
		}
		r.expenses = append(r.expenses, e)
	}
}

func (r *Remote) ListUsers(_ context.Context) ([]core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, &core.TransportError{Op: "list users", Err: r.failErr}
	}
	return append([]core.User(nil), r.users...), nil
}

func (r *Remote) ListExpenses(_ context.Context) ([]core.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, &core.TransportError{Op: "list expenses", Err: r.failErr}
	}
	return append([]core.Expense(nil), r.expenses...), nil
}

func (r *Remote) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return core.Expense{}, &core.TransportError{Op: "create expense", Err: r.failErr}
	}
	e.ID = r.allocID()
	if e.CreatedAt == "" {
		e.CreatedAt = core.ISOTimestamp(r.now())
	}
	r.expenses = append(r.expenses, e)
	return e, nil
}

func (r *Remote) DeleteExpense(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return &core.TransportError{Op: "delete expense", Err: r.failErr}
	}
	for i, e := range r.expenses {
		if e.ID == id {
			r.expenses = append(r.expenses[:i], r.expenses[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete expense %s: %w", id, remote.ErrNotFound)
}

func (r *Remote) allocID() string {
	id := strconv.Itoa(r.nextID)
	r.nextID++
	return id
}

// ReadSeedUsers parses a seed file of "username,email,name" lines. Ids are
// assigned in file order starting at 1. A missing file yields no users.
func ReadSeedUsers(path string) []core.User {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.User
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		username := strings.TrimSpace(parts[0])
		if username == "" {
			continue
		}
		if _, ok := seen[username]; ok {
			continue
		}
		seen[username] = struct{}{}
		u := core.User{ID: strconv.Itoa(len(out) + 1), Username: username}
		if len(parts) > 1 {
			u.Email = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			u.Name = strings.TrimSpace(strings.Join(parts[2:], ","))
		}
		out = append(out, u)
	}
	return out
}

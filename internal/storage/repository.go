// Package storage is the SQLite data layer behind the mock expense API.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"pocketspend/internal/core"
	"pocketspend/internal/log"
	"pocketspend/internal/remote"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath, migrationsFS); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: log.OrNop(logger).WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// CreateUser inserts u and returns it with its assigned id. Usernames are
// unique.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, name, avatar) VALUES (?, ?, ?, ?)`,
		u.Username, u.Email, u.Name, u.Avatar)
	if err != nil {
		return core.User{}, fmt.Errorf("create user %q: %w", u.Username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("read user id: %w", err)
	}
	u.ID = strconv.FormatInt(id, 10)
	return u, nil
}

// SeedUsers inserts users inside one transaction when the table is empty.
// It returns how many rows were written.
func (r *SQLiteRepository) SeedUsers(ctx context.Context, users []core.User) (int, error) {
	n, err := r.CountUsers(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 || len(users) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO users (username, email, name, avatar) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	for _, u := range users {
		if _, err := stmt.ExecContext(ctx, u.Username, u.Email, u.Name, u.Avatar); err != nil {
			return 0, fmt.Errorf("seed user %q: %w", u.Username, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}

	r.logger.InfoContext(ctx, "Seeded users", log.FieldCount, len(users))
	return len(users), nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, username, email, name, avatar FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]core.User, 0)
	for rows.Next() {
		var (
			id int64
			u  core.User
		)
		if err := rows.Scan(&id, &u.Username, &u.Email, &u.Name, &u.Avatar); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.ID = strconv.FormatInt(id, 10)
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListExpenses returns expenses in insertion order.
func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount, description, category, created_at FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// CreateExpense stores e and returns it with its new id. Any id on e is
// ignored and createdAt is kept exactly as sent.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (name, amount, description, category, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.Name, e.Amount, e.Description, e.Category, e.CreatedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("read expense id: %w", err)
	}
	e.ID = strconv.FormatInt(id, 10)

	r.logger.InfoContext(ctx, "Expense saved to SQLite",
		log.FieldExpenseID, e.ID,
		log.FieldExpenseName, e.Name,
		log.FieldAmount, e.Amount)
	return e, nil
}

// DeleteExpense removes the expense and returns what was deleted. Unknown or
// malformed ids report remote.ErrNotFound.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) (core.Expense, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %q: %w", id, remote.ErrNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, name, amount, description, category, created_at FROM expenses WHERE id = ?`, n)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, remote.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, n); err != nil {
		return core.Expense{}, fmt.Errorf("delete expense %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit delete: %w", err)
	}

	r.logger.InfoContext(ctx, "Expense deleted from SQLite", log.FieldExpenseID, e.ID)
	return e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		id int64
		e  core.Expense
	)
	if err := s.Scan(&id, &e.Name, &e.Amount, &e.Description, &e.Category, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.ID = strconv.FormatInt(id, 10)
	return e, nil
}

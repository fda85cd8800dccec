package worker

import (
	"context"
	"errors"
	"testing"

	"pocketspend/internal/amqp"
	"pocketspend/internal/core"
	"pocketspend/internal/sheets/memory"
)

type failingMirror struct{ err error }

func (f failingMirror) MirrorExpense(context.Context, core.Expense) (string, error) {
	return "", f.err
}

func (f failingMirror) RemoveExpense(context.Context, string) error { return f.err }

func TestActivityWorker_CreatedAndDeleted(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	w := NewActivityWorker(mirror, nil)

	e := core.Expense{ID: "1", Name: "Lunch", Amount: "12.50", Description: "ramen"}
	if err := w.Handle(ctx, amqp.NewExpenseCreatedMessage(e)); err != nil {
		t.Fatalf("Handle created: %v", err)
	}
	// Redelivery must not duplicate the row.
	if err := w.Handle(ctx, amqp.NewExpenseCreatedMessage(e)); err != nil {
		t.Fatalf("Handle redelivered: %v", err)
	}
	if rows := mirror.Rows(); len(rows) != 1 {
		t.Fatalf("expected one mirrored row, got %v", rows)
	}

	if err := w.Handle(ctx, amqp.NewExpenseDeletedMessage("1")); err != nil {
		t.Fatalf("Handle deleted: %v", err)
	}
	if rows := mirror.Rows(); len(rows) != 0 {
		t.Fatalf("expected no rows, got %v", rows)
	}
	if _, ok := w.SeenCache().Get("1"); ok {
		t.Error("deleted id should leave the dedupe cache")
	}
}

func TestActivityWorker_MirrorFailureIsReturned(t *testing.T) {
	w := NewActivityWorker(failingMirror{err: errors.New("quota exceeded")}, nil)

	err := w.Handle(context.Background(), amqp.NewExpenseCreatedMessage(core.Expense{ID: "9"}))
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := w.SeenCache().Get("9"); ok {
		t.Error("failed mirror must not be remembered")
	}

	if err := w.Handle(context.Background(), amqp.NewExpenseDeletedMessage("9")); err == nil {
		t.Fatal("expected error on delete")
	}
}

func TestActivityWorker_UnknownKind(t *testing.T) {
	w := NewActivityWorker(memory.New(), nil)
	if err := w.Handle(context.Background(), &amqp.ActivityMessage{Kind: "other", ExpenseID: "1"}); err != nil {
		t.Fatalf("unknown kinds are dropped, got %v", err)
	}
}

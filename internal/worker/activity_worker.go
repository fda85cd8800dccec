package worker

import (
	"context"
	"fmt"
	"time"

	"pocketspend/internal/amqp"
	"pocketspend/internal/cache"
	"pocketspend/internal/log"
	"pocketspend/internal/sheets"
)

const (
	seenCacheSize = 1000
	seenCacheTTL  = 24 * time.Hour
)

// ActivityWorker applies expense activity to the spreadsheet mirror.
// Redelivered "created" events for an id already mirrored are skipped.
type ActivityWorker struct {
	mirror sheets.ExpenseMirror
	seen   *cache.LRUCache[string]
	logger *log.Logger
}

func NewActivityWorker(mirror sheets.ExpenseMirror, logger *log.Logger) *ActivityWorker {
	return &ActivityWorker{
		mirror: mirror,
		seen:   cache.NewLRUCache[string](seenCacheSize, seenCacheTTL),
		logger: log.OrNop(logger).WithComponent(log.ComponentWorker),
	}
}

// SeenCache exposes the dedupe cache so it can be registered for cleanup.
func (w *ActivityWorker) SeenCache() *cache.LRUCache[string] {
	return w.seen
}

// Handle routes one activity message. Returning an error requeues it.
func (w *ActivityWorker) Handle(ctx context.Context, msg *amqp.ActivityMessage) error {
	switch msg.Kind {
	case amqp.KindExpenseCreated:
		return w.handleCreated(ctx, msg)
	case amqp.KindExpenseDeleted:
		return w.handleDeleted(ctx, msg)
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown activity", "kind", string(msg.Kind))
		return nil
	}
}

func (w *ActivityWorker) handleCreated(ctx context.Context, msg *amqp.ActivityMessage) error {
	if ref, ok := w.seen.Get(msg.ExpenseID); ok {
		w.logger.DebugContext(ctx, "Expense already mirrored",
			log.FieldExpenseID, msg.ExpenseID, "row_ref", ref)
		return nil
	}

	ref, err := w.mirror.MirrorExpense(ctx, *msg.Expense)
	if err != nil {
		return fmt.Errorf("mirror expense %s: %w", msg.ExpenseID, err)
	}
	w.seen.Set(msg.ExpenseID, ref)

	w.logger.InfoContext(ctx, "Expense mirrored",
		log.FieldExpenseID, msg.ExpenseID,
		"row_ref", ref,
		log.FieldOperation, log.OpMirror)
	return nil
}

func (w *ActivityWorker) handleDeleted(ctx context.Context, msg *amqp.ActivityMessage) error {
	if err := w.mirror.RemoveExpense(ctx, msg.ExpenseID); err != nil {
		return fmt.Errorf("remove mirrored expense %s: %w", msg.ExpenseID, err)
	}
	w.seen.Delete(msg.ExpenseID)

	w.logger.InfoContext(ctx, "Mirrored expense removed",
		log.FieldExpenseID, msg.ExpenseID,
		log.FieldOperation, log.OpDelete)
	return nil
}

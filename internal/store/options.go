// Package store holds the client-side state containers: authentication,
// expenses, budgets and the toast slot. Each store is an explicit object
// built at startup and passed to whoever needs it; there is no global
// instance.
package store

import (
	"time"

	"github.com/google/uuid"

	"pocketspend/internal/log"
)

// DefaultToastDuration is how long a toast stays visible.
const DefaultToastDuration = 3000 * time.Millisecond

type options struct {
	logger        *log.Logger
	now           func() time.Time
	timers        Timers
	toastDuration time.Duration
	newID         func() string
}

// Option configures a store.
type Option func(*options)

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock sets the time source used to stamp new expenses.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTimers sets the scheduler used for toast expiry.
func WithTimers(t Timers) Option {
	return func(o *options) { o.timers = t }
}

func WithToastDuration(d time.Duration) Option {
	return func(o *options) { o.toastDuration = d }
}

// WithIDGenerator sets the budget id generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		now:           time.Now,
		timers:        RealTimers(),
		toastDuration: DefaultToastDuration,
		newID:         newBudgetID,
	}
	for _, fn := range opts {
		fn(&o)
	}
	o.logger = log.OrNop(o.logger)
	if o.toastDuration <= 0 {
		o.toastDuration = DefaultToastDuration
	}
	return o
}

// newBudgetID returns a time-ordered UUID.
func newBudgetID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

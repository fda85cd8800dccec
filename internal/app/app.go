// Package app assembles the stores, the finance service and their backends
// from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"pocketspend/internal/amqp"
	"pocketspend/internal/backend"
	"pocketspend/internal/cache"
	"pocketspend/internal/config"
	"pocketspend/internal/log"
	"pocketspend/internal/persist"
	"pocketspend/internal/services"
	"pocketspend/internal/store"
)

const cacheCleanupInterval = 5 * time.Minute

// App owns every long-lived component of a client process.
type App struct {
	Stores  services.Stores
	Finance *services.FinanceService

	storage   persist.Storage
	publisher *amqp.Client
	caches    *cache.Manager
	logger    *log.Logger
}

type appOptions struct {
	factory   backend.Factory
	storeOpts []store.Option
	noAMQP    bool
}

// Option customises New.
type Option func(*appOptions)

// WithFactory replaces the default backend factory.
func WithFactory(f backend.Factory) Option {
	return func(o *appOptions) { o.factory = f }
}

// WithStoreOptions adds options applied to every store.
func WithStoreOptions(opts ...store.Option) Option {
	return func(o *appOptions) { o.storeOpts = append(o.storeOpts, opts...) }
}

// WithoutActivity disables the AMQP publisher even when configured.
func WithoutActivity() Option {
	return func(o *appOptions) { o.noAMQP = true }
}

// New builds the application and restores the persisted stores. Unreadable
// persisted state and a failing AMQP connection are logged, not fatal.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...Option) (*App, error) {
	logger = log.OrNop(logger)
	o := appOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	caches := cache.NewManager(logger)
	if o.factory == nil {
		o.factory = backend.NewFactory(logger, caches)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}

	storage, err := o.factory.CreateStorage(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	api, err := o.factory.CreateRemote(ctx, bcfg)
	if err != nil {
		storage.Close()
		return nil, err
	}

	storeOpts := append([]store.Option{
		store.WithLogger(logger),
		store.WithToastDuration(cfg.ToastDuration),
	}, o.storeOpts...)

	a := &App{
		Stores: services.Stores{
			Auth:     store.NewAuthStore(api, storage, storeOpts...),
			Expenses: store.NewExpenseStore(api, storeOpts...),
			Budgets:  store.NewBudgetStore(storage, storeOpts...),
			Toasts:   store.NewToastStore(storeOpts...),
		},
		storage: storage,
		caches:  caches,
		logger:  logger.WithComponent(log.ComponentApp),
	}

	if cfg.AMQPURL != "" && !o.noAMQP {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			a.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without activity publishing",
				log.FieldError, err)
		} else {
			a.publisher = client
		}
	}

	var publisher services.ActivityPublisher
	if a.publisher != nil {
		publisher = a.publisher
	}
	a.Finance = services.NewFinanceService(a.Stores, publisher, logger)

	if err := a.rehydrate(ctx); err != nil {
		a.logger.WarnContext(ctx, "Starting with default state", log.FieldError, err)
	}

	caches.StartCleanup(cacheCleanupInterval)
	a.logger.InfoContext(ctx, "Application ready",
		"remote", cfg.RemoteBackend,
		"storage", cfg.StorageBackend,
		"activity", a.publisher != nil)
	return a, nil
}

var _ services.ActivityPublisher = (*amqp.Client)(nil)

// rehydrate restores auth and budgets concurrently. A store whose record
// cannot be read keeps its initial state; the other is still restored.
func (a *App) rehydrate(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		if err := a.Stores.Auth.Rehydrate(ctx); err != nil {
			return fmt.Errorf("rehydrate auth: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := a.Stores.Budgets.Rehydrate(ctx); err != nil {
			return fmt.Errorf("rehydrate budgets: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// Close flushes pending writes and releases every resource.
func (a *App) Close() error {
	a.Stores.Auth.Flush()
	a.Stores.Budgets.Flush()
	a.caches.Stop()

	var errs []error
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close amqp: %w", err))
		}
	}
	if err := a.storage.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}

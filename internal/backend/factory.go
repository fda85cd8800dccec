package backend

import (
	"context"
	"fmt"

	"pocketspend/internal/cache"
	"pocketspend/internal/log"
	"pocketspend/internal/persist"
	"pocketspend/internal/remote"
	remotemem "pocketspend/internal/remote/memory"
	"pocketspend/internal/remote/rest"
	"pocketspend/internal/sheets"
	gsheet "pocketspend/internal/sheets/google"
	sheetmem "pocketspend/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	caches *cache.Manager
}

// NewFactory creates a backend factory. Caches it creates are registered
// with caches for periodic cleanup; caches may be nil.
func NewFactory(logger *log.Logger, caches *cache.Manager) *DefaultFactory {
	return &DefaultFactory{
		logger: log.OrNop(logger).WithComponent(log.ComponentBackend),
		caches: caches,
	}
}

var _ Factory = (*DefaultFactory)(nil)

func (f *DefaultFactory) CreateStorage(ctx context.Context, config Config) (persist.Storage, error) {
	var (
		storage persist.Storage
		err     error
	)
	switch config.Storage {
	case SQLiteStorage:
		storage, err = persist.NewSQLiteStorage(config.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
	case MemoryStorage:
		storage = persist.NewMemoryStorage()
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Storage)
	}

	if config.CacheSize > 0 {
		lru := cache.NewLRUCache[[]byte](config.CacheSize, config.CacheTTL)
		if f.caches != nil {
			f.caches.Register(lru)
		}
		storage = persist.NewCachedStorage(storage, lru)
	}

	f.logger.InfoContext(ctx, "Initialized local storage",
		"type", config.Storage,
		"path", config.StoragePath,
		"cache_size", config.CacheSize)
	return storage, nil
}

func (f *DefaultFactory) CreateRemote(ctx context.Context, config Config) (remote.API, error) {
	switch config.Remote {
	case RESTRemote:
		client, err := rest.New(rest.Config{
			UsersURL:    config.UsersURL,
			ExpensesURL: config.ExpensesURL,
			Timeout:     config.HTTPTimeout,
		}, rest.WithLogger(f.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize REST remote: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized REST remote",
			"users_url", config.UsersURL,
			"expenses_url", config.ExpensesURL)
		return client, nil
	case MemoryRemote:
		f.logger.InfoContext(ctx, "Initialized in-memory remote", "seed_dir", config.SeedDir)
		return remotemem.NewFromFiles(config.SeedDir), nil
	default:
		return nil, fmt.Errorf("unsupported remote type: %s", config.Remote)
	}
}

func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (sheets.ExpenseMirror, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.InfoContext(ctx, "No spreadsheet configured, using in-memory mirror")
		return sheetmem.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets mirror", "sheet", config.GoogleSheetName)
	return client, nil
}

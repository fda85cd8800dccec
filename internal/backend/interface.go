// Package backend builds the storage, remote and mirror implementations
// selected by configuration.
package backend

import (
	"context"
	"time"

	"pocketspend/internal/persist"
	"pocketspend/internal/remote"
	"pocketspend/internal/sheets"
)

// Factory creates backends based on configuration
type Factory interface {
	// CreateStorage returns the durable key-value storage for persisted stores.
	CreateStorage(ctx context.Context, config Config) (persist.Storage, error)
	// CreateRemote returns the user and expense API.
	CreateRemote(ctx context.Context, config Config) (remote.API, error)
	// CreateMirror returns the spreadsheet mirror used by the activity worker.
	CreateMirror(ctx context.Context, config Config) (sheets.ExpenseMirror, error)
}

// Config holds configuration for backend creation
type Config struct {
	Storage     StorageType
	StoragePath string
	CacheSize   int
	CacheTTL    time.Duration

	Remote      RemoteType
	UsersURL    string
	ExpensesURL string
	HTTPTimeout time.Duration
	SeedDir     string

	// Sheets mirror; an empty spreadsheet id selects the in-memory mirror.
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

type StorageType string

const (
	SQLiteStorage StorageType = "sqlite"
	MemoryStorage StorageType = "memory"
)

func (t StorageType) IsValid() bool {
	return t == SQLiteStorage || t == MemoryStorage
}

type RemoteType string

const (
	RESTRemote   RemoteType = "rest"
	MemoryRemote RemoteType = "memory"
)

func (t RemoteType) IsValid() bool {
	return t == RESTRemote || t == MemoryRemote
}

package backend

import (
	"fmt"

	"pocketspend/internal/config"
)

// FromAppConfig extracts the backend settings from the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	cfg := Config{
		Storage:     StorageType(appConfig.StorageBackend),
		StoragePath: appConfig.StoragePath,
		CacheSize:   appConfig.StorageCacheSize,
		CacheTTL:    appConfig.StorageCacheTTL,

		Remote:      RemoteType(appConfig.RemoteBackend),
		UsersURL:    appConfig.UsersURL,
		ExpensesURL: appConfig.ExpensesURL,
		HTTPTimeout: appConfig.HTTPTimeout,
		SeedDir:     appConfig.SeedDir,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Storage.IsValid() {
		return fmt.Errorf("invalid storage type: %s", c.Storage)
	}
	if !c.Remote.IsValid() {
		return fmt.Errorf("invalid remote type: %s", c.Remote)
	}
	if c.Storage == SQLiteStorage && c.StoragePath == "" {
		return fmt.Errorf("storage path is required for sqlite storage")
	}
	if c.Remote == RESTRemote && (c.UsersURL == "" || c.ExpensesURL == "") {
		return fmt.Errorf("users and expenses URLs are required for the rest remote")
	}
	if c.CacheSize > 0 && c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive when caching is enabled")
	}
	return nil
}

// Command mockapi serves the users and expenses API that pocketspend talks
// to, backed by SQLite.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pocketspend/internal/cli"
	apphttp "pocketspend/internal/http"
	"pocketspend/internal/log"
	"pocketspend/internal/remote/memory"
	"pocketspend/internal/storage"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		os.Stderr.WriteString("load .env: " + err.Error() + "\n")
	}
	logger := cli.SetupLogger(os.Stdout)

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.ServerDBPath, logger)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.ServerDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	seedPath := filepath.Join(cfg.SeedDir, "seed_users.txt")
	if n, err := repo.SeedUsers(context.Background(), memory.ReadSeedUsers(seedPath)); err != nil {
		logger.Error("Failed to seed users", log.FieldError, err, "path", seedPath)
		os.Exit(1)
	} else if n > 0 {
		logger.Info("Users seeded", log.FieldCount, n, "path", seedPath)
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:      ":" + cfg.Port,
		RateLimit: cfg.ServerRateLimit,
	}, repo, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting mock API server", "port", cfg.Port, "db_path", cfg.ServerDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down mock API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

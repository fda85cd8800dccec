// Command activity-worker consumes expense activity from AMQP and mirrors it
// into a spreadsheet.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"pocketspend/internal/amqp"
	"pocketspend/internal/backend"
	"pocketspend/internal/cache"
	"pocketspend/internal/cli"
	"pocketspend/internal/log"
	"pocketspend/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		os.Stderr.WriteString("load .env: " + err.Error() + "\n")
	}
	logger := cli.SetupLogger(os.Stdout)
	logger.Info("Starting activity-worker")

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the activity worker")
		os.Exit(1)
	}

	caches := cache.NewManager(logger)
	factory := backend.NewFactory(logger, caches)
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func(context.Context) {
		caches.Stop()
	})

	mirror, err := factory.CreateMirror(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize expense mirror", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.NewActivityWorker(mirror, logger)
	caches.Register(w.SeenCache())
	caches.StartCleanup(time.Hour)

	logger.Info("Consuming expense activity", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := amqpClient.ConsumeActivity(ctx, w.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		amqpClient.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Activity worker stopped")
}

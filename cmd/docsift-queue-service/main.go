// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/docsift/docsift/lib/clock"
	"github.com/docsift/docsift/lib/process"
	"github.com/docsift/docsift/lib/service"
	"github.com/docsift/docsift/lib/version"
	"github.com/docsift/docsift/queue"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var showVersion bool

	flag.StringVar(&configPath, "config", os.Getenv("DOCSIFT_QUEUE_CONFIG"), "path to config file (required)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("docsift-queue-service %s\n", version.Info())
		return nil
	}

	if configPath == "" {
		return fmt.Errorf("--config is required (or set DOCSIFT_QUEUE_CONFIG)")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	config, err := queue.LoadConfigFile(configPath)
	if err != nil {
		return err
	}

	logger.Info("starting docsift-queue-service",
		"version", version.Info(),
		"listen_address", config.ListenAddress,
		"database", config.DatabasePath,
		"inbox", config.InboxDir,
		"auth", config.APITokenHash != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()

	store, err := queue.OpenStore(queue.StoreConfig{
		Path:     config.DatabasePath,
		PoolSize: config.PoolSize,
		Clock:    clk,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing store", "error", err)
		}
	}()

	ingester, err := queue.NewIngester(queue.IngesterConfig{
		Store:    store,
		InboxDir: config.InboxDir,
		Clock:    clk,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	hub := queue.NewHub(queue.HubConfig{Logger: logger})
	defer hub.Close()

	queueService, err := queue.NewService(queue.ServiceConfig{
		Store:         store,
		Hub:           hub,
		Ingester:      ingester,
		NewItemsDwell: config.NewItemsDwell.Std(),
		Clock:         clk,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	// Sweep whatever accumulated in the inbox while the service was
	// down. A failed boot scan is not fatal: the API and the
	// on-demand scan endpoint still work.
	if result, err := queueService.RunScan(ctx); err != nil {
		logger.Error("boot scan failed", "error", err)
	} else {
		logger.Info("boot scan complete",
			"processed", result.ProcessedCount,
			"new_items", result.NewItemsCount,
			"failed", result.FailedCount,
		)
	}

	if interval := config.ScanInterval.Std(); interval > 0 {
		ticker := clk.NewTicker(interval)
		defer ticker.Stop()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if _, err := queueService.RunScan(ctx); err != nil {
						logger.Error("periodic scan failed", "error", err)
					}
				}
			}
		}()
	}

	server := service.NewHTTPServer(service.HTTPServerConfig{
		Address:         config.ListenAddress,
		Handler:         queue.NewHandler(queueService, hub, config.APITokenHash, logger),
		ShutdownTimeout: config.ShutdownTimeout.Std(),
		Logger:          logger,
	})
	if err := server.Serve(ctx); err != nil {
		return err
	}

	// Serve has drained HTTP requests; websocket connections are
	// hijacked and drain separately via the hub.
	hub.Close()
	logger.Info("shutdown complete")
	return nil
}

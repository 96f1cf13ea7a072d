package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"pet-gallery/internal/gallery_server/api"
	"pet-gallery/internal/gallery_server/gallery_service"
	"pet-gallery/internal/gallery_server/metastore"
	"pet-gallery/internal/gallery_server/metrics"
	"pet-gallery/internal/gallery_server/objectstore"
	"pet-gallery/pkg/config"
	"pet-gallery/pkg/logger"
)

func main() {
	lg := logger.GetLogger()

	cfg, err := config.Resolve(config.NewEnvProvider())
	if err != nil {
		lg.Error("Failed to resolve configuration", slog.Any("error", err))
		os.Exit(1)
	}
	lg.Info("Configuration resolved",
		slog.String("port", cfg.ServerPort),
		slog.String("bucket", cfg.Bucket),
		slog.String("metadata_db", cfg.MetaDBPath),
		slog.Any("labels", cfg.Labels))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(metrics.Registry)

	objects, err := objectstore.New(cfg, lg, m)
	if err != nil {
		lg.Error("Failed to initialize object store", slog.Any("error", err))
		os.Exit(1)
	}

	meta, err := metastore.Open(cfg.MetaDBPath, lg)
	if err != nil {
		lg.Error("Failed to open metadata store", slog.Any("error", err))
		os.Exit(1)
	}
	defer meta.Close()

	g, initCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return objects.EnsureBucket(initCtx) })
	g.Go(func() error { return meta.Migrate(initCtx) })
	if err := g.Wait(); err != nil {
		lg.Error("Failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}

	service := gallery_service.New(objects, meta, cfg, lg, m)
	server := api.NewServer(service, cfg, lg, metrics.Registry)
	server.Start(ctx)
}

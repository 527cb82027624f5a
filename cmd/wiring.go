package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"declaration-manager/core/config"
	"declaration-manager/core/database"
	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/reconcile"
	"declaration-manager/core/snapshot"
	"declaration-manager/core/storage"
	"declaration-manager/feature/gslb"
	"declaration-manager/feature/network"
	"declaration-manager/feature/system"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// handlers returns every reconciliation handler in registration order.
func handlers(cfg *config.Config, logg *zap.Logger) []reconcile.Handler {
	return []reconcile.Handler{
		system.NewHandler(logg),
		network.NewHandler(logg, cfg.Device.RetryPolicy()),
		gslb.NewHandler(logg),
	}
}

// connectDatabase connects only when the database is configured. A failed
// connection is fatal only when the snapshot lives in the database.
func connectDatabase(cfg *config.Config, logg *zap.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg.Database)
	if err == nil {
		return db, nil
	}
	if cfg.Snapshot.Source == snapshot.SourceDatabase {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logg.Warn("Optional database connection failed", zap.Error(err))
	return nil, nil
}

// snapshotCache builds the configured snapshot source behind a cache.
func snapshotCache(ctx context.Context, cfg *config.Config, store storage.Client, db *gorm.DB) (*snapshot.Cache, error) {
	source, err := snapshot.NewSource(cfg.Snapshot, store, cfg.Storage.Bucket, db)
	if err != nil {
		return nil, err
	}
	if dbSource, ok := source.(*snapshot.DBSource); ok {
		if err := dbSource.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate snapshot table: %w", err)
		}
		if err := dbSource.Check(ctx); err != nil {
			return nil, err
		}
	}
	return snapshot.NewCache(source, cfg.Snapshot.TTL()), nil
}

// newEngine builds the device client and the engine. A dry run never reaches the
// device, so it gets a Recorder and needs no device configuration.
func newEngine(cfg *config.Config, logg *zap.Logger, opts reconcile.Options) (*reconcile.Engine, error) {
	var client device.Client
	if opts.DryRun {
		client = device.NewRecorder()
	} else {
		httpClient, err := device.NewHTTPClient(cfg.Device, logg)
		if err != nil {
			return nil, fmt.Errorf("failed to create device client: %w", err)
		}
		client = httpClient
	}
	return reconcile.NewEngine(client, logg, opts, handlers(cfg, logg)...), nil
}

// readDeclaration reads a declaration from a local file or, for object names
// prefixed with "s3://", from the configured bucket.
func readDeclaration(ctx context.Context, location string, store storage.Client, bucket string) (*declaration.Object, error) {
	if name, ok := strings.CutPrefix(location, "s3://"); ok {
		if store == nil {
			return nil, fmt.Errorf("reading %s requires a storage client", location)
		}
		data, err := storage.ReadObject(ctx, store, bucket, name)
		if err != nil {
			return nil, err
		}
		return declaration.Decode(bytes.NewReader(data))
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("failed to open declaration: %w", err)
	}
	defer f.Close()
	return declaration.Decode(f)
}

package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"declaration-manager/core/config"
	"declaration-manager/core/loader"
	"declaration-manager/core/logger"
	"declaration-manager/core/middleware/auth"
	"declaration-manager/core/middleware/rayid"
	"declaration-manager/core/storage"

	"declaration-manager/feature/declare"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the declaration server",
	Long:  `Starts the HTTP server that accepts declarations and applies them to the configured device.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database (optional unless it holds the snapshot)
		db, err := connectDatabase(cfg, logg)
		if err != nil {
			logg.Fatal("Database required by snapshot source", zap.Error(err))
		}

		// 4. Initialize Storage
		var store storage.Client
		var archive *declare.Archive
		if client, err := storage.NewClient(cfg.Storage); err != nil {
			logg.Warn("Storage client unavailable, declarations will not be archived", zap.Error(err))
		} else if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			logg.Warn("Storage bucket unavailable, declarations will not be archived", zap.Error(err))
			store = client
		} else {
			store = client
			archive = declare.NewArchive(store, cfg.Storage.Bucket, cfg.Storage.ArchivePrefix, cfg.Storage.ArchiveKeep)
		}

		// 5. Snapshot and Engine
		cache, err := snapshotCache(ctx, cfg, store, db)
		if err != nil {
			logg.Fatal("Failed to initialize snapshot source", zap.Error(err))
		}
		engine, err := newEngine(cfg, logg, cfg.Reconcile.Options())
		if err != nil {
			logg.Fatal("Failed to initialize engine", zap.Error(err))
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             cfg.Server.BodyLimit(),
		})

		// 6. Feature Loader
		mgr := loader.NewManager()
		mgr.Register(declare.NewFeature(engine, cache, archive, logg))

		// RayID first so every later log line carries it
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			start := time.Now()
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			l.Debug("Request finished",
				zap.Int("status", c.Response().StatusCode()),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		})

		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("addr", cfg.Server.Addr()))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"declaration-manager/core/config"
	"declaration-manager/core/logger"
	"declaration-manager/core/snapshot"
	"declaration-manager/core/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the service dependencies",
	Long:  `Checks that the storage bucket exists and that the configured snapshot source can be read.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChecks(true, true)
	},
}

var checkStorageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Check the storage bucket (create it with --fix)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChecks(true, false)
	},
}

var checkSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Check the snapshot source (migrate the table with --fix)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChecks(false, true)
	},
}

func init() {
	checkCmd.PersistentFlags().BoolVar(&fixFlag, "fix", false, "Repair what can be repaired")
	checkCmd.AddCommand(checkStorageCmd)
	checkCmd.AddCommand(checkSnapshotCmd)
	RootCmd.AddCommand(checkCmd)
}

func runChecks(checkStorage, checkSnapshot bool) error {
	ctx := context.Background()
	startTime := time.Now()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	var store storage.Client
	if client, err := storage.NewClient(cfg.Storage); err != nil {
		logg.Warn("Storage client unavailable", zap.Error(err))
	} else {
		store = client
	}

	failed := 0
	if checkStorage {
		if err := checkBucket(ctx, store, cfg); err != nil {
			failed++
			fmt.Printf("Storage:  FAIL  %v\n", err)
		} else {
			fmt.Printf("Storage:  OK    bucket %s\n", cfg.Storage.Bucket)
		}
	}

	if checkSnapshot {
		n, err := checkSnapshotSource(ctx, store, cfg, logg)
		if err != nil {
			failed++
			fmt.Printf("Snapshot: FAIL  %v\n", err)
		} else {
			fmt.Printf("Snapshot: OK    source %s, %d objects\n", cfg.Snapshot.Source, n)
		}
	}

	logg.Info("Checks completed",
		zap.Int("failed", failed),
		zap.Duration("execution_time", time.Since(startTime)),
	)
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func checkBucket(ctx context.Context, store storage.Client, cfg *config.Config) error {
	if store == nil {
		return fmt.Errorf("storage is not configured")
	}
	if fixFlag {
		return storage.EnsureBucket(ctx, store, cfg.Storage.Bucket, cfg.Storage.Region)
	}
	exists, err := store.BucketExists(ctx, cfg.Storage.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", cfg.Storage.Bucket)
	}
	return nil
}

func checkSnapshotSource(ctx context.Context, store storage.Client, cfg *config.Config, logg *zap.Logger) (int, error) {
	db, err := connectDatabase(cfg, logg)
	if err != nil {
		return 0, err
	}
	source, err := snapshot.NewSource(cfg.Snapshot, store, cfg.Storage.Bucket, db)
	if err != nil {
		return 0, err
	}
	if dbSource, ok := source.(*snapshot.DBSource); ok {
		if fixFlag {
			if err := dbSource.Migrate(ctx); err != nil {
				return 0, err
			}
		}
		if err := dbSource.Check(ctx); err != nil {
			return 0, err
		}
	}
	m, err := source.Load(ctx)
	if err != nil {
		return 0, err
	}
	return m.Len(), nil
}

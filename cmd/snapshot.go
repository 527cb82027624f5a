package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"declaration-manager/core/config"
	"declaration-manager/core/declaration"
	"declaration-manager/core/logger"
	"declaration-manager/core/snapshot"
	"declaration-manager/core/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var recordFile string

// snapshotCmd groups commands that inspect or seed the snapshot.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect or seed the current-state snapshot",
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show [tenant]",
	Short: "Print the snapshot, optionally for one tenant",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, _, err := openSnapshot(context.Background())
		if err != nil {
			return err
		}
		m, err := cache.Load(context.Background())
		if err != nil {
			return err
		}

		if len(args) == 1 {
			tenant := args[0]
			filtered := snapshot.New()
			m.Each(func(t string, class declaration.Class, name string) {
				if t == tenant {
					filtered.Add(class, t, name)
				}
			})
			m = filtered
		}

		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var snapshotRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Add the entities of a declaration to the snapshot without applying it",
	Long:  `Marks every entity of a declaration as existing on the device. Use it to adopt configuration that was created outside this service.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cache, logg, err := openSnapshot(ctx)
		if err != nil {
			return err
		}

		doc, err := readDeclaration(ctx, recordFile, nil, "")
		if err != nil {
			return err
		}
		parsed, err := declaration.ParseDocument(doc)
		if err != nil {
			return fmt.Errorf("invalid declaration: %w", err)
		}
		if err := cache.Record(ctx, parsed); err != nil {
			return fmt.Errorf("failed to record snapshot: %w", err)
		}
		logg.Info("Snapshot updated", zap.Int("entities", parsed.Len()), zap.Strings("tenants", parsed.Tenants))
		return nil
	},
}

func init() {
	snapshotRecordCmd.Flags().StringVarP(&recordFile, "file", "f", "", "Declaration file (JSON or YAML)")
	_ = snapshotRecordCmd.MarkFlagRequired("file")
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotCmd.AddCommand(snapshotRecordCmd)
	RootCmd.AddCommand(snapshotCmd)
}

func openSnapshot(ctx context.Context) (*snapshot.Cache, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var store storage.Client
	if client, err := storage.NewClient(cfg.Storage); err == nil {
		store = client
	}
	db, err := connectDatabase(cfg, logg)
	if err != nil {
		return nil, nil, err
	}
	cache, err := snapshotCache(ctx, cfg, store, db)
	if err != nil {
		return nil, nil, err
	}
	return cache, logg, nil
}

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"declaration-manager/core/config"
	"declaration-manager/core/declaration"
	"declaration-manager/core/logger"
	"declaration-manager/core/reconcile"
	"declaration-manager/core/snapshot"
	"declaration-manager/core/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	declarationFile string
	snapshotFile    string
	dryRunFlag      bool
	perDomainFlag   bool
	yesConfirm      bool
	planOutput      bool
)

// reconcileCmd applies a declaration from the command line.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Plan and apply a declaration against the device",
	Long: `Parses a declaration, compares it with the current snapshot and applies
leaf settings followed by one atomic transaction.

Examples:
  # Show the plan only
  reconcile --file onboarding.json --dry-run

  # Apply with interactive confirmation
  reconcile --file onboarding.json

  # Apply a declaration kept in the bucket, non-interactive
  reconcile --file s3://declarations/site-a.json --yes

  # Use a local snapshot instead of the configured source
  reconcile --file onboarding.json --snapshot current.json`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVarP(&declarationFile, "file", "f", "", "Declaration file (JSON or YAML), or s3://<object>")
	reconcileCmd.Flags().StringVar(&snapshotFile, "snapshot", "", "Snapshot file overriding the configured source")
	reconcileCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Build the plan without touching the device")
	reconcileCmd.Flags().BoolVar(&perDomainFlag, "per-domain", false, "Submit one transaction per domain")
	reconcileCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Apply without confirmation (non-interactive)")
	reconcileCmd.Flags().BoolVar(&planOutput, "json", false, "Print the plan as JSON")
	_ = reconcileCmd.MarkFlagRequired("file")

	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	var store storage.Client
	if client, err := storage.NewClient(cfg.Storage); err == nil {
		store = client
	} else {
		l.Debug("Storage client unavailable", zap.Error(err))
	}

	doc, err := readDeclaration(ctx, declarationFile, store, cfg.Storage.Bucket)
	if err != nil {
		return err
	}
	parsed, err := declaration.ParseDocument(doc)
	if err != nil {
		return fmt.Errorf("invalid declaration: %w", err)
	}

	var cache *snapshot.Cache
	if snapshotFile != "" {
		cache = snapshot.NewCache(&snapshot.FileSource{Path: snapshotFile}, 0)
	} else {
		db, err := connectDatabase(cfg, l)
		if err != nil {
			return err
		}
		if cache, err = snapshotCache(ctx, cfg, store, db); err != nil {
			return err
		}
	}

	opts := cfg.Reconcile.Options()
	opts.DryRun = opts.DryRun || dryRunFlag
	opts.PerDomainTransactions = opts.PerDomainTransactions || perDomainFlag

	engine, err := newEngine(cfg, l, opts)
	if err != nil {
		return err
	}

	l.Info("Planning declaration...", zap.Strings("tenants", parsed.Tenants))
	plan, err := engine.PlanParsed(ctx, parsed, cache)
	if err != nil {
		return fmt.Errorf("failed to plan declaration: %w", err)
	}
	if err := printPlan(l, plan); err != nil {
		return err
	}

	if len(plan.Commands()) == 0 && plan.Summary.Upserts == 0 {
		l.Info("Nothing to apply.")
		return nil
	}
	if opts.DryRun {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}
	if !confirmApply() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	l.Info("Applying plan...")
	result, err := engine.Apply(ctx, plan)
	if err != nil {
		return fmt.Errorf("failed to apply plan: %w", err)
	}
	l.Info("Declaration applied",
		zap.Int("upserts", result.UpsertsApplied),
		zap.Int("transactions", result.TransactionsSubmitted),
		zap.Int("commands", result.CommandsSubmitted),
	)

	if err := cache.Record(ctx, parsed); err != nil && !errors.Is(err, snapshot.ErrReadOnly) {
		l.Warn("Failed to record snapshot", zap.Error(err))
	}
	return nil
}

// printPlan logs the plan summary and, with --json, prints the full plan.
func printPlan(l *zap.Logger, plan *reconcile.Plan) error {
	s := plan.Summary
	l.Info("Reconciliation plan",
		zap.Int("entities", s.Entities),
		zap.Int("upserts", s.Upserts),
		zap.Int("creates", s.Creates),
		zap.Int("modifies", s.Modifies),
		zap.Strings("domains", plan.CommandDomains()),
	)

	if planOutput {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal plan: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	for _, stage := range plan.Stages {
		for _, c := range stage.Commands {
			l.Info("Planned command", zap.String("domain", stage.Domain), zap.String("command", c.String()))
		}
	}
	return nil
}

// confirmApply prompts the user for confirmation or uses --yes flag.
func confirmApply() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to apply these changes to the device: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}

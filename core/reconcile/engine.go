package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/snapshot"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Engine applies plans to a device.
type Engine struct {
	client   device.Client
	logger   *zap.Logger
	opts     Options
	handlers []Handler
}

// NewEngine creates an engine for the given handlers. Handlers are ordered by
// their dependencies when a plan is built.
func NewEngine(client device.Client, logger *zap.Logger, opts Options, handlers ...Handler) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{client: client, logger: logger, opts: opts, handlers: handlers}
}

// Plan parses doc, loads the snapshot and builds the plan without applying it.
func (e *Engine) Plan(ctx context.Context, doc *declaration.Object, source snapshot.Source) (*Plan, error) {
	parsed, err := declaration.ParseDocument(doc)
	if err != nil {
		return nil, err
	}
	return e.PlanParsed(ctx, parsed, source)
}

// PlanParsed loads the snapshot and builds the plan for an already parsed
// declaration.
func (e *Engine) PlanParsed(ctx context.Context, parsed *declaration.Parsed, source snapshot.Source) (*Plan, error) {
	snap, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	return BuildPlan(parsed, snap, e.handlers...)
}

// Run executes a full reconciliation cycle: parse, load snapshot, plan, apply.
func (e *Engine) Run(ctx context.Context, doc *declaration.Object, source snapshot.Source) (*Result, error) {
	plan, err := e.Plan(ctx, doc, source)
	if err != nil {
		return nil, err
	}
	return e.Apply(ctx, plan)
}

// Apply executes a plan: leaf settings first, concurrently, then the commands as
// one transaction (or one per domain). Nothing is retried here.
func (e *Engine) Apply(ctx context.Context, plan *Plan) (*Result, error) {
	result := &Result{Plan: plan, DryRun: e.opts.DryRun}
	start := time.Now()

	if e.opts.DryRun {
		e.logger.Info("Dry run, plan not applied",
			zap.Int("upserts", plan.Summary.Upserts),
			zap.Int("creates", plan.Summary.Creates),
			zap.Int("modifies", plan.Summary.Modifies))
		return result, nil
	}

	if err := e.applyLeafSettings(ctx, plan, result); err != nil {
		return result, err
	}

	if err := e.submit(ctx, plan, result); err != nil {
		return result, err
	}

	e.logger.Info("Plan applied",
		zap.Int("upserts", result.UpsertsApplied),
		zap.Int("transactions", result.TransactionsSubmitted),
		zap.Int("commands", result.CommandsSubmitted),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// applyLeafSettings runs every upsert concurrently. The first failure cancels the
// remaining ones.
func (e *Engine) applyLeafSettings(ctx context.Context, plan *Plan, result *Result) error {
	if plan.Summary.Upserts == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if e.opts.Concurrency > 0 {
		g.SetLimit(e.opts.Concurrency)
	}

	var applied atomic.Int32
	for _, stage := range plan.Stages {
		for _, u := range stage.Upserts {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := e.upsert(gctx, u); err != nil {
					return &DomainError{Domain: stage.Domain, Op: OpLeafSettings, Err: err}
				}
				applied.Add(1)
				return nil
			})
		}
	}

	err := g.Wait()
	result.UpsertsApplied = int(applied.Load())
	if err != nil {
		e.logger.Error("Leaf settings failed", zap.String("domain", domainOf(err)), zap.Error(err))
		return err
	}
	return nil
}

func (e *Engine) upsert(ctx context.Context, u Upsert) error {
	switch u.Mode {
	case UpsertModify:
		return e.client.Modify(ctx, u.Path, u.Body)
	case UpsertCreateOrModify:
		return e.client.CreateOrModify(ctx, u.Path, u.Body, u.Query, u.Retry)
	default:
		return fmt.Errorf("unknown upsert mode %q for %s", u.Mode, u.Path)
	}
}

// submit sends the plan's commands. Stages are never submitted concurrently since
// later commands may reference objects created by earlier ones.
func (e *Engine) submit(ctx context.Context, plan *Plan, result *Result) error {
	if e.opts.PerDomainTransactions {
		for _, stage := range plan.Stages {
			if len(stage.Commands) == 0 {
				continue
			}
			if err := e.transaction(ctx, stage.Domain, stage.Commands, result); err != nil {
				return err
			}
		}
		return nil
	}

	commands := plan.Commands()
	if len(commands) == 0 {
		e.logger.Debug("No commands, skipping transaction")
		return nil
	}
	return e.transaction(ctx, strings.Join(plan.CommandDomains(), ","), commands, result)
}

func (e *Engine) transaction(ctx context.Context, domain string, commands []device.Command, result *Result) error {
	e.logger.Info("Submitting transaction", zap.String("domain", domain), zap.Int("commands", len(commands)))
	if err := e.client.Transaction(ctx, commands); err != nil {
		err = &DomainError{Domain: domain, Op: OpTransaction, Err: err}
		e.logger.Error("Transaction failed", zap.String("domain", domain), zap.Error(err))
		return err
	}
	result.TransactionsSubmitted++
	result.CommandsSubmitted += len(commands)
	return nil
}

func domainOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Domain
	}
	return ""
}

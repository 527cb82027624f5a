// Package reconcile drives a device toward a declared configuration.
//
// Each functional domain (GSLB, network, system) contributes a Handler. A Handler
// is pure: it reads the parsed declaration and the current-state snapshot and
// returns two kinds of work:
//
//   - Leaf settings: idempotent upserts of singleton objects. These are applied
//     concurrently and the first failure aborts the rest.
//   - Commands: create or modify operations on named objects. Commands are
//     concatenated in handler dependency order and submitted as one transaction.
//
// # Pipeline
//
// Engine.Run executes the stages in a fixed order:
//
//	Parse -> load snapshot -> BuildPlan -> leaf settings -> transaction
//
// BuildPlan orders handlers by their After() dependencies so that, for example,
// network objects are created before GSLB servers that reference them. Nothing is
// submitted when the plan has no commands.
//
// # Usage Example
//
//	engine := reconcile.NewEngine(client, logger, reconcile.Options{Concurrency: 4},
//	    network.NewHandler(), gslb.NewHandler())
//	result, err := engine.Run(ctx, doc, snapshotCache)
//
// Errors coming out of a stage are *DomainError values naming the domain that
// failed. A failed transaction may still have been partially applied by the
// device; the engine makes no attempt to detect or roll back partial application.
package reconcile

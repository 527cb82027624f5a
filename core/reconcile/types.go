package reconcile

import (
	"fmt"

	"declaration-manager/core/device"
)

// Mode selects the client call used for an Upsert.
type Mode string

const (
	// UpsertModify patches a singleton object that always exists on the device.
	UpsertModify Mode = "modify"
	// UpsertCreateOrModify creates a named leaf object or modifies it if present.
	UpsertCreateOrModify Mode = "createOrModify"
)

// Upsert is one idempotent leaf-setting operation.
type Upsert struct {
	Path string      `json:"path"`
	Body device.Body `json:"body"`
	Mode Mode        `json:"mode"`

	// Query is passed through to CreateOrModify.
	Query *device.QueryOptions `json:"-"`

	// Retry overrides the client's retry policy for CreateOrModify.
	Retry *device.RetryPolicy `json:"-"`
}

// Stage holds the work contributed by one handler.
type Stage struct {
	Domain   string           `json:"domain"`
	Upserts  []Upsert         `json:"upserts"`
	Commands []device.Command `json:"commands"`
}

// Plan is the ordered work of one reconciliation cycle.
type Plan struct {
	// Tenants lists the tenants of the declaration in order of first appearance.
	Tenants []string `json:"tenants"`

	// Stages are in dependency order.
	Stages []Stage `json:"stages"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// Commands returns the commands of every stage, concatenated in stage order.
func (p *Plan) Commands() []device.Command {
	var out []device.Command
	for _, s := range p.Stages {
		out = append(out, s.Commands...)
	}
	return out
}

// CommandDomains returns the domains that contributed at least one command.
func (p *Plan) CommandDomains() []string {
	var out []string
	for _, s := range p.Stages {
		if len(s.Commands) > 0 {
			out = append(out, s.Domain)
		}
	}
	return out
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// Entities is the number of parsed entities.
	Entities int `json:"entities"`

	// Upserts counts leaf-setting operations.
	Upserts int `json:"upserts"`

	// Creates counts create commands.
	Creates int `json:"creates"`

	// Modifies counts modify commands.
	Modifies int `json:"modifies"`
}

// Options controls how a plan is applied.
type Options struct {
	// DryRun builds the plan without contacting the device.
	DryRun bool

	// PerDomainTransactions submits one transaction per domain instead of one
	// for the whole plan.
	PerDomainTransactions bool

	// Concurrency limits the number of leaf settings applied at once.
	// Zero or negative means no limit.
	Concurrency int
}

// Result reports what Apply did.
type Result struct {
	Plan *Plan `json:"plan"`

	DryRun bool `json:"dryRun"`

	// UpsertsApplied counts leaf settings that succeeded.
	UpsertsApplied int `json:"upsertsApplied"`

	// TransactionsSubmitted counts transactions that committed.
	TransactionsSubmitted int `json:"transactionsSubmitted"`

	// CommandsSubmitted counts commands in committed transactions.
	CommandsSubmitted int `json:"commandsSubmitted"`
}

// Ops reported by DomainError.
const (
	OpPlan         = "plan"
	OpLeafSettings = "leaf settings"
	OpTransaction  = "transaction"
)

// DomainError annotates a failure with the domain that produced it.
type DomainError struct {
	Domain string
	Op     string
	Err    error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Domain, e.Op, e.Err)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

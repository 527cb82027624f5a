package reconcile

import (
	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/snapshot"
)

// Handler defines the reconciliation logic of one functional domain.
// Implementations must not perform I/O: they only translate declared entities
// into work for the engine.
type Handler interface {
	// Name returns the unique domain name (e.g., "gslb", "network").
	Name() string

	// After returns the domains whose commands must precede this handler's
	// commands in the transaction.
	After() []string

	// LeafSettings returns upserts for singleton settings owned by this domain.
	LeafSettings(parsed *declaration.Parsed) ([]Upsert, error)

	// Commands returns create/modify commands for the named objects owned by this
	// domain, in declaration order. The snapshot decides create versus modify.
	Commands(parsed *declaration.Parsed, snap snapshot.Snapshot) ([]device.Command, error)
}

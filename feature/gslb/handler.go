package gslb

import (
	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/reconcile"
	"declaration-manager/core/snapshot"

	"go.uber.org/zap"
)

// Domain is the name of this handler.
const Domain = "gslb"

// Handler implements reconcile.Handler for GSLB.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a GSLB handler.
func NewHandler(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger}
}

// Name returns "gslb".
func (h *Handler) Name() string {
	return Domain
}

// After returns the network domain: servers may reference self IPs declared in
// the same cycle.
func (h *Handler) After() []string {
	return []string{"network"}
}

// LeafSettings returns the global settings upserts.
func (h *Handler) LeafSettings(parsed *declaration.Parsed) ([]reconcile.Upsert, error) {
	return globalsUpserts(parsed.First(declaration.ClassGSLBGlobals)), nil
}

// Commands returns data center, monitor, server and prober pool commands, in
// that order.
func (h *Handler) Commands(parsed *declaration.Parsed, snap snapshot.Snapshot) ([]device.Command, error) {
	var commands []device.Command

	for _, e := range parsed.Entities(declaration.ClassGSLBDataCenter) {
		commands = append(commands, reconcile.NewCommand(snap, e, datacenterPath, dataCenterBody(e)))
	}

	for _, e := range parsed.Entities(declaration.ClassGSLBMonitor) {
		collection, body, err := monitorBody(e)
		if err != nil {
			return nil, err
		}
		commands = append(commands, reconcile.NewCommand(snap, e, collection, body))
	}

	for _, e := range parsed.Entities(declaration.ClassGSLBServer) {
		commands = append(commands, reconcile.NewCommand(snap, e, serverPath, serverBody(e)))
	}

	for _, e := range parsed.Entities(declaration.ClassGSLBProberPool) {
		commands = append(commands, reconcile.NewCommand(snap, e, proberPoolPath, proberPoolBody(e)))
	}

	h.logger.Debug("Built GSLB commands", zap.Int("count", len(commands)))
	return commands, nil
}

// partitionPath qualifies a name with the tenant unless it is already a path.
func partitionPath(tenant, name string) string {
	if name == "" || name[0] == '/' {
		return name
	}
	return "/" + tenant + "/" + name
}

// enabledFlags sets the enabled/disabled boolean pair used by GTM objects.
func enabledFlags(body device.Body, attrs reconcile.Attrs) {
	enabled := attrs.Bool("enabled", true)
	body["enabled"] = enabled
	body["disabled"] = !enabled
}

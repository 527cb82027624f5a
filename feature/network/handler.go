package network

import (
	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/reconcile"
	"declaration-manager/core/snapshot"

	"go.uber.org/zap"
)

// Domain is the name of this handler.
const Domain = "network"

const (
	vlanPath        = "/tm/net/vlan"
	selfIPPath      = "/tm/net/self"
	routePath       = "/tm/net/route"
	routeDomainPath = "/tm/net/route-domain"
)

// Handler implements reconcile.Handler for network objects.
type Handler struct {
	logger *zap.Logger
	retry  *device.RetryPolicy
}

// NewHandler creates a network handler. retry, when set, overrides the client
// retry policy for route domain upserts.
func NewHandler(logger *zap.Logger, retry *device.RetryPolicy) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger, retry: retry}
}

func (h *Handler) Name() string {
	return Domain
}

func (h *Handler) After() []string {
	return nil
}

// LeafSettings returns one create-or-modify upsert per route domain. Route
// domains are applied before the transaction so self IPs can use them.
func (h *Handler) LeafSettings(parsed *declaration.Parsed) ([]reconcile.Upsert, error) {
	var upserts []reconcile.Upsert
	for _, e := range parsed.Entities(declaration.ClassRouteDomain) {
		attrs := reconcile.Attrs(e.Attributes)
		upserts = append(upserts, reconcile.Upsert{
			Path:  routeDomainPath,
			Mode:  reconcile.UpsertCreateOrModify,
			Retry: h.retry,
			Body: device.Body{
				"name":            e.Name,
				"partition":       e.Tenant,
				"id":              attrs.Int("id", 0),
				"strict":          reconcile.EnabledDisabled(attrs.Bool("strict", true)),
				"connectionLimit": attrs.Int("connectionLimit", 0),
				"vlans":           attrs.Strings("vlans"),
				"description":     attrs.StringOrNone("remark"),
			},
		})
	}
	return upserts, nil
}

// Commands returns VLAN, self IP and route commands, in that order.
func (h *Handler) Commands(parsed *declaration.Parsed, snap snapshot.Snapshot) ([]device.Command, error) {
	var commands []device.Command

	for _, e := range parsed.Entities(declaration.ClassVlan) {
		commands = append(commands, reconcile.NewCommand(snap, e, vlanPath, vlanBody(e)))
	}
	for _, e := range parsed.Entities(declaration.ClassSelfIp) {
		commands = append(commands, reconcile.NewCommand(snap, e, selfIPPath, selfIPBody(e)))
	}
	for _, e := range parsed.Entities(declaration.ClassRoute) {
		commands = append(commands, reconcile.NewCommand(snap, e, routePath, routeBody(e)))
	}

	h.logger.Debug("Built network commands", zap.Int("count", len(commands)))
	return commands, nil
}

func vlanBody(e *declaration.Entity) device.Body {
	attrs := reconcile.Attrs(e.Attributes)
	body := device.Body{
		"name":            e.Name,
		"partition":       e.Tenant,
		"mtu":             attrs.Int("mtu", 1500),
		"cmpHash":         attrs.String("cmpHash", "default"),
		"failsafe":        reconcile.EnabledDisabled(attrs.Bool("failsafeEnabled", false)),
		"failsafeAction":  attrs.String("failsafeAction", "failover-restart-tm"),
		"failsafeTimeout": attrs.Int("failsafeTimeout", 90),
		"description":     attrs.StringOrNone("remark"),
		"interfaces":      vlanInterfaces(attrs.List("interfaces")),
	}
	if attrs.Has("tag") {
		body["tag"] = attrs.Int("tag", 0)
	}
	return body
}

func vlanInterfaces(list []any) []device.Body {
	out := make([]device.Body, 0, len(list))
	for _, item := range list {
		var iface reconcile.Attrs
		switch t := item.(type) {
		case string:
			iface = reconcile.Attrs{"name": t}
		case map[string]any:
			iface = t
		default:
			continue
		}
		out = append(out, device.Body{
			"name":   iface.String("name", ""),
			"tagged": iface.Bool("tagged", false),
		})
	}
	return out
}

func selfIPBody(e *declaration.Entity) device.Body {
	attrs := reconcile.Attrs(e.Attributes)
	vlan := attrs.String("vlan", "")
	if vlan != "" && vlan[0] != '/' {
		vlan = "/" + e.Tenant + "/" + vlan
	}
	return device.Body{
		"name":         e.Name,
		"partition":    e.Tenant,
		"address":      attrs.String("address", ""),
		"vlan":         vlan,
		"allowService": allowService(attrs),
		"trafficGroup": attrs.String("trafficGroup", "traffic-group-local-only"),
	}
}

// allowService passes "all", "none" and "default" through and keeps port lists
// as lists.
func allowService(attrs reconcile.Attrs) any {
	v, ok := attrs.Value("allowService")
	if !ok {
		return reconcile.None
	}
	if _, isList := v.([]any); isList {
		return attrs.Strings("allowService")
	}
	return attrs.String("allowService", reconcile.None)
}

func routeBody(e *declaration.Entity) device.Body {
	attrs := reconcile.Attrs(e.Attributes)
	return device.Body{
		"name":        e.Name,
		"partition":   e.Tenant,
		"gw":          attrs.String("gw", ""),
		"network":     attrs.String("network", "default"),
		"mtu":         attrs.Int("mtu", 0),
		"description": attrs.StringOrNone("remark"),
	}
}

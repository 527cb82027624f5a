package system

import (
	"sort"

	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/reconcile"
	"declaration-manager/core/snapshot"
	"declaration-manager/core/utils"

	"go.uber.org/zap"
)

// Domain is the name of this handler.
const Domain = "system"

const (
	globalSettingsPath = "/tm/sys/global-settings"
	softwareUpdatePath = "/tm/sys/software/update"
	dnsPath            = "/tm/sys/dns"
	ntpPath            = "/tm/sys/ntp"
	provisionPrefix    = "/tm/sys/provision/"
	dbPrefix           = "/tm/sys/db/"
)

// Handler implements reconcile.Handler for system settings.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a system handler.
func NewHandler(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger}
}

func (h *Handler) Name() string {
	return Domain
}

func (h *Handler) After() []string {
	return nil
}

// LeafSettings maps System, DNS, NTP, Provision and DbVariables entities.
func (h *Handler) LeafSettings(parsed *declaration.Parsed) ([]reconcile.Upsert, error) {
	var upserts []reconcile.Upsert

	if e := parsed.First(declaration.ClassSystem); e != nil {
		upserts = append(upserts, systemUpserts(reconcile.Attrs(e.Attributes))...)
	}

	if e := parsed.First(declaration.ClassDNS); e != nil {
		attrs := reconcile.Attrs(e.Attributes)
		upserts = append(upserts, modify(dnsPath, device.Body{
			"nameServers": attrs.Strings("nameServers"),
			"search":      attrs.Strings("search"),
		}))
	}

	if e := parsed.First(declaration.ClassNTP); e != nil {
		attrs := reconcile.Attrs(e.Attributes)
		upserts = append(upserts, modify(ntpPath, device.Body{
			"servers":  attrs.Strings("servers"),
			"timezone": attrs.String("timezone", "UTC"),
		}))
	}

	if e := parsed.First(declaration.ClassProvision); e != nil {
		for _, module := range sortedKeys(e.Attributes) {
			upserts = append(upserts, modify(provisionPrefix+module, device.Body{
				"level": utils.ToString(e.Attributes[module]),
			}))
		}
	}

	for _, e := range parsed.Entities(declaration.ClassDbVariables) {
		for _, key := range sortedKeys(e.Attributes) {
			upserts = append(upserts, modify(dbPrefix+key, device.Body{
				"value": utils.ToString(e.Attributes[key]),
			}))
		}
	}

	h.logger.Debug("Built system leaf settings", zap.Int("count", len(upserts)))
	return upserts, nil
}

// Commands returns nothing: system settings are all singletons.
func (h *Handler) Commands(parsed *declaration.Parsed, snap snapshot.Snapshot) ([]device.Command, error) {
	return nil, nil
}

func systemUpserts(attrs reconcile.Attrs) []reconcile.Upsert {
	var upserts []reconcile.Upsert

	global := device.Body{}
	if attrs.Has("hostname") {
		global["hostname"] = attrs.String("hostname", "")
	}
	if attrs.Has("consoleInactivityTimeout") {
		global["consoleInactivityTimeout"] = attrs.Int("consoleInactivityTimeout", 0)
	}
	if len(global) > 0 {
		upserts = append(upserts, modify(globalSettingsPath, global))
	}

	if attrs.Has("autoPhonehome") || attrs.Has("autoCheck") {
		upserts = append(upserts, modify(softwareUpdatePath, device.Body{
			"autoPhonehome": reconcile.EnabledDisabled(attrs.Bool("autoPhonehome", false)),
			"autoCheck":     reconcile.EnabledDisabled(attrs.Bool("autoCheck", false)),
		}))
	}

	return upserts
}

func modify(path string, body device.Body) reconcile.Upsert {
	return reconcile.Upsert{Path: path, Body: body, Mode: reconcile.UpsertModify}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

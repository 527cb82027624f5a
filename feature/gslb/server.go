package gslb

import (
	"strconv"
	"strings"

	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/reconcile"
)

const serverPath = "/tm/gtm/server"

func serverBody(e *declaration.Entity) device.Body {
	attrs := reconcile.Attrs(e.Attributes)
	body := device.Body{
		"name":                   e.Name,
		"partition":              e.Tenant,
		"description":            attrs.StringOrNone("remark"),
		"datacenter":             partitionPath(e.Tenant, attrs.String("dataCenter", "")),
		"product":                attrs.String("serverType", "bigip"),
		"proberPreference":       attrs.String("proberPreferred", "inherit"),
		"proberFallback":         attrs.String("proberFallback", "inherit"),
		"proberPool":             reconcile.OrNone(partitionPath(e.Tenant, attrs.String("proberPool", ""))),
		"exposeRouteDomains":     reconcile.YesNo(attrs.Bool("exposeRouteDomainsEnabled", false)),
		"iqAllowPath":            reconcile.YesNo(attrs.Bool("bigIqAllowPath", true)),
		"iqAllowServiceCheck":    reconcile.YesNo(attrs.Bool("bigIqAllowServiceCheck", true)),
		"iqAllowSnmp":            reconcile.YesNo(attrs.Bool("bigIqAllowSnmp", true)),
		"virtualServerDiscovery": reconcile.EnabledDisabled(attrs.Bool("virtualServerDiscoveryEnabled", false)),
		"monitor":                reconcile.JoinMonitors(attrs.List("monitors")),
		"devices":                serverDevices(attrs.List("devices")),
		"virtualServers":         virtualServers(attrs.List("virtualServers")),
	}
	enabledFlags(body, attrs)
	return body
}

func serverDevices(devices []any) []device.Body {
	out := make([]device.Body, 0, len(devices))
	for i, d := range devices {
		attrs, _ := d.(map[string]any)
		dev := reconcile.Attrs(attrs)
		out = append(out, device.Body{
			"name": strconv.Itoa(i),
			"addresses": []device.Body{{
				"name":        dev.String("address", ""),
				"translation": dev.StringOrNone("addressTranslation"),
			}},
			"description": dev.StringOrNone("remark"),
		})
	}
	return out
}

func virtualServers(list []any) []device.Body {
	out := make([]device.Body, 0, len(list))
	for i, v := range list {
		raw, _ := v.(map[string]any)
		vs := reconcile.Attrs(raw)
		body := device.Body{
			"name":               vs.String("name", strconv.Itoa(i)),
			"description":        vs.StringOrNone("remark"),
			"destination":        destination(vs.String("address", ""), vs.Int("port", 0)),
			"translationAddress": vs.StringOrNone("addressTranslation"),
			"translationPort":    vs.Int("addressTranslationPort", 0),
			"monitor":            reconcile.JoinMonitors(vs.List("monitors")),
		}
		enabledFlags(body, vs)
		out = append(out, body)
	}
	return out
}

// destination formats address and port the way the device does: a colon for
// IPv4 and a dot for IPv6 addresses.
func destination(address string, port int) string {
	sep := ":"
	if strings.Contains(address, ":") {
		sep = "."
	}
	return address + sep + strconv.Itoa(port)
}

package gslb

import (
	"fmt"

	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/reconcile"
)

const monitorPathPrefix = "/tm/gtm/monitor/"

// Supported monitor types.
const (
	MonitorHTTP        = "http"
	MonitorHTTPS       = "https"
	MonitorGatewayICMP = "gateway-icmp"
	MonitorTCP         = "tcp"
	MonitorUDP         = "udp"
)

// monitorBody returns the type-specific collection and the body for a monitor.
func monitorBody(e *declaration.Entity) (string, device.Body, error) {
	attrs := reconcile.Attrs(e.Attributes)
	monitorType := attrs.String("monitorType", "")

	body := device.Body{
		"name":               e.Name,
		"partition":          e.Tenant,
		"description":        attrs.StringOrNone("remark"),
		"destination":        attrs.String("target", "*:*"),
		"interval":           attrs.Int("interval", 30),
		"timeout":            attrs.Int("timeout", 120),
		"probeTimeout":       attrs.Int("probeTimeout", 5),
		"ignoreDownResponse": reconcile.EnabledDisabled(attrs.Bool("ignoreDownResponse", false)),
		"transparent":        reconcile.EnabledDisabled(attrs.Bool("transparent", false)),
	}

	switch monitorType {
	case MonitorHTTP, MonitorHTTPS:
		body["reverse"] = reconcile.EnabledDisabled(attrs.Bool("reverseEnabled", false))
		body["send"] = attrs.String("send", "HEAD / HTTP/1.0\\r\\n\\r\\n")
		body["recv"] = attrs.String("receive", "HTTP/1.")
		if monitorType == MonitorHTTPS {
			body["cipherlist"] = attrs.String("ciphers", "DEFAULT")
			body["cert"] = attrs.StringOrNone("clientCertificate")
		}
	case MonitorTCP:
		body["reverse"] = reconcile.EnabledDisabled(attrs.Bool("reverseEnabled", false))
		body["send"] = attrs.String("send", "")
		body["recv"] = attrs.String("receive", "")
	case MonitorGatewayICMP:
		body["probeInterval"] = attrs.Int("probeInterval", 1)
		body["probeAttempts"] = attrs.Int("probeAttempts", 3)
	case MonitorUDP:
		body["probeInterval"] = attrs.Int("probeInterval", 1)
		body["probeAttempts"] = attrs.Int("probeAttempts", 3)
		body["debug"] = reconcile.YesNo(attrs.Bool("debugEnabled", false))
		body["reverse"] = reconcile.EnabledDisabled(attrs.Bool("reverseEnabled", false))
		body["send"] = attrs.String("send", "default send string")
		body["recv"] = attrs.String("receive", "")
	default:
		return "", nil, fmt.Errorf("monitor %s: unsupported monitorType %q", e.Path, monitorType)
	}

	return monitorPathPrefix + monitorType, body, nil
}

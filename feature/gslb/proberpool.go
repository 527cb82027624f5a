package gslb

import (
	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/reconcile"
)

const proberPoolPath = "/tm/gtm/prober-pool"

func proberPoolBody(e *declaration.Entity) device.Body {
	attrs := reconcile.Attrs(e.Attributes)
	body := device.Body{
		"name":              e.Name,
		"partition":         e.Tenant,
		"description":       attrs.StringOrNone("remark"),
		"loadBalancingMode": attrs.String("lbMode", "global-round-robin"),
		"members":           proberPoolMembers(attrs.List("members")),
	}
	enabledFlags(body, attrs)
	return body
}

// proberPoolMembers expands members into bodies. A member is either a server
// name or an object with a "server" field. The order field is the position in
// the declared list.
func proberPoolMembers(members []any) []device.Body {
	out := make([]device.Body, 0, len(members))
	for i, m := range members {
		var member reconcile.Attrs
		switch t := m.(type) {
		case string:
			member = reconcile.Attrs{"server": t}
		case map[string]any:
			member = t
		default:
			continue
		}
		body := device.Body{
			"name":        member.String("server", ""),
			"order":       i,
			"description": member.StringOrNone("remark"),
		}
		enabledFlags(body, member)
		out = append(out, body)
	}
	return out
}

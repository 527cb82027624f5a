package gslb

import (
	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/reconcile"
)

const datacenterPath = "/tm/gtm/datacenter"

func dataCenterBody(e *declaration.Entity) device.Body {
	attrs := reconcile.Attrs(e.Attributes)
	body := device.Body{
		"name":             e.Name,
		"partition":        e.Tenant,
		"description":      attrs.StringOrNone("remark"),
		"contact":          attrs.StringOrNone("contact"),
		"location":         attrs.StringOrNone("location"),
		"proberFallback":   attrs.String("proberFallback", "any-available"),
		"proberPreference": attrs.String("proberPreferred", "inside-datacenter"),
		"proberPool":       reconcile.OrNone(partitionPath(e.Tenant, attrs.String("proberPool", ""))),
	}
	enabledFlags(body, attrs)
	return body
}

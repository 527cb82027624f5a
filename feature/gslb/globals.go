package gslb

import (
	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/reconcile"
)

const (
	generalSettingsPath       = "/tm/gtm/global-settings/general"
	loadBalancingSettingsPath = "/tm/gtm/global-settings/load-balancing"
)

// globalsUpserts maps a GSLBGlobals entity onto the global-settings singletons.
// A declaration without GSLBGlobals leaves the device settings alone.
func globalsUpserts(e *declaration.Entity) []reconcile.Upsert {
	if e == nil {
		return nil
	}

	attrs := reconcile.Attrs(e.Attributes)
	general := attrs.Map("general")
	if general == nil {
		general = attrs
	}

	upserts := []reconcile.Upsert{{
		Path: generalSettingsPath,
		Mode: reconcile.UpsertModify,
		Body: device.Body{
			"synchronization":              reconcile.YesNo(general.Bool("synchronizationEnabled", false)),
			"synchronizationGroupName":     general.String("synchronizationGroupName", "default"),
			"synchronizationTimeTolerance": general.Int("synchronizationTimeTolerance", 10),
			"synchronizationTimeout":       general.Int("synchronizationTimeout", 180),
		},
	}}

	if lb := attrs.Map("loadBalancing"); lb != nil {
		upserts = append(upserts, reconcile.Upsert{
			Path: loadBalancingSettingsPath,
			Mode: reconcile.UpsertModify,
			Body: device.Body{
				"respectFallbackDependency":       reconcile.YesNo(lb.Bool("respectFallbackDependency", false)),
				"topologyPreferEdns0ClientSubnet": reconcile.EnabledDisabled(lb.Bool("topologyPreferEdns0ClientSubnet", false)),
			},
		})
	}

	return upserts
}

package declaration

// Class discriminates the type of a declared object.
type Class string

const (
	ClassTenant          Class = "Tenant"
	ClassSystem          Class = "System"
	ClassLicense         Class = "License"
	ClassDNS             Class = "DNS"
	ClassNTP             Class = "NTP"
	ClassProvision       Class = "Provision"
	ClassDbVariables     Class = "DbVariables"
	ClassUser            Class = "User"
	ClassVlan            Class = "Vlan"
	ClassSelfIp          Class = "SelfIp"
	ClassRoute           Class = "Route"
	ClassRouteDomain     Class = "RouteDomain"
	ClassConfigSync      Class = "ConfigSync"
	ClassFailoverUnicast Class = "FailoverUnicast"
	ClassDeviceGroup     Class = "DeviceGroup"
	ClassGSLBGlobals     Class = "GSLBGlobals"
	ClassGSLBDataCenter  Class = "GSLBDataCenter"
	ClassGSLBMonitor     Class = "GSLBMonitor"
	ClassGSLBServer      Class = "GSLBServer"
	ClassGSLBProberPool  Class = "GSLBProberPool"
)

// Document-level classes that may appear on the root and carry no entities.
const (
	wrapperDO       = "DO"
	wrapperDevice   = "Device"
	wrapperControls = "Controls"
)

var knownClasses = map[Class]struct{}{
	ClassTenant:          {},
	ClassSystem:          {},
	ClassLicense:         {},
	ClassDNS:             {},
	ClassNTP:             {},
	ClassProvision:       {},
	ClassDbVariables:     {},
	ClassUser:            {},
	ClassVlan:            {},
	ClassSelfIp:          {},
	ClassRoute:           {},
	ClassRouteDomain:     {},
	ClassConfigSync:      {},
	ClassFailoverUnicast: {},
	ClassDeviceGroup:     {},
	ClassGSLBGlobals:     {},
	ClassGSLBDataCenter:  {},
	ClassGSLBMonitor:     {},
	ClassGSLBServer:      {},
	ClassGSLBProberPool:  {},
}

// ParseClass maps a declared class name onto a known Class.
func ParseClass(name string) (Class, error) {
	c := Class(name)
	if _, ok := knownClasses[c]; !ok {
		return "", &UnknownClassError{Class: name}
	}
	return c, nil
}

// IsTenant reports whether c opens a partition.
func (c Class) IsTenant() bool {
	return c == ClassTenant
}

func (c Class) String() string {
	return string(c)
}

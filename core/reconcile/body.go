package reconcile

import (
	"strings"

	"declaration-manager/core/declaration"
	"declaration-manager/core/device"
	"declaration-manager/core/snapshot"
	"declaration-manager/core/utils"
)

// None is the remote default for absent optional strings.
const None = "none"

// YesNo maps a synchronization-style flag.
func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// EnabledDisabled maps a feature-toggle flag.
func EnabledDisabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// OrNone returns v, or "none" when v is nil or an empty string.
func OrNone(v any) any {
	switch t := v.(type) {
	case nil:
		return None
	case string:
		if t == "" {
			return None
		}
	}
	return v
}

// JoinMonitors joins monitor references into one conjunctive reference,
// e.g. ["http", "tcp"] -> "http and tcp". References may be plain names or
// objects carrying a "bigip" path.
func JoinMonitors(refs []any) string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		switch r := ref.(type) {
		case string:
			names = append(names, r)
		case map[string]any:
			if p, ok := r["bigip"]; ok {
				names = append(names, utils.ToString(p))
			}
		default:
			names = append(names, utils.ToString(r))
		}
	}
	return strings.Join(names, " and ")
}

// ItemPath addresses an existing object: collection/~tenant~name.
func ItemPath(collection, tenant, name string) string {
	return collection + "/~" + tenant + "~" + name
}

// Target decides whether an entity is created in its collection or modified in
// place, based on whether the snapshot already holds it.
func Target(snap snapshot.Snapshot, class declaration.Class, collection, tenant, name string) (device.Method, string) {
	if snap != nil && snap.Has(class, tenant, name) {
		return device.MethodModify, ItemPath(collection, tenant, name)
	}
	return device.MethodCreate, collection
}

// NewCommand builds the command for entity e against collection.
func NewCommand(snap snapshot.Snapshot, e *declaration.Entity, collection string, body device.Body) device.Command {
	method, path := Target(snap, e.Class, collection, e.Tenant, e.Name)
	return device.Command{Method: method, Path: path, Body: body}
}

// Attrs reads declared attributes with defaults.
type Attrs map[string]any

// Has reports whether key is declared with a non-null value.
func (a Attrs) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// Value returns the raw value of key.
func (a Attrs) Value(key string) (any, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns key as a string, or def when absent.
func (a Attrs) String(key, def string) string {
	v, ok := a.Value(key)
	if !ok {
		return def
	}
	return utils.ToString(v)
}

// StringOrNone returns key as a string, or "none" when absent or empty.
func (a Attrs) StringOrNone(key string) string {
	s := a.String(key, "")
	if s == "" {
		return None
	}
	return s
}

// Bool returns key as a bool, or def when absent.
func (a Attrs) Bool(key string, def bool) bool {
	v, ok := a.Value(key)
	if !ok {
		return def
	}
	return utils.ToBool(v)
}

// Int returns key as an int, or def when absent.
func (a Attrs) Int(key string, def int) int {
	v, ok := a.Value(key)
	if !ok {
		return def
	}
	return utils.ToInt(v)
}

// List returns key as a list. A scalar is wrapped into a one-element list.
func (a Attrs) List(key string) []any {
	v, ok := a.Value(key)
	if !ok {
		return nil
	}
	if l, ok := v.([]any); ok {
		return l
	}
	return []any{v}
}

// Strings returns key as a list of strings.
func (a Attrs) Strings(key string) []string {
	return utils.ToStringSlice(a.List(key))
}

// Map returns key as nested attributes, or nil.
func (a Attrs) Map(key string) Attrs {
	v, ok := a.Value(key)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"declaration-manager/core/declaration"

	"gopkg.in/yaml.v3"
)

// Snapshot answers existence queries against the device's current configuration.
type Snapshot interface {
	Has(class declaration.Class, tenant, name string) bool
}

// Map is an in-memory Snapshot keyed tenant -> class -> name.
// A Map must not be modified once it has been handed to a reconciliation.
type Map struct {
	entries map[string]map[declaration.Class]map[string]struct{}
}

// New returns an empty Map.
func New() *Map {
	return &Map{entries: make(map[string]map[declaration.Class]map[string]struct{})}
}

// FromParsed builds the snapshot a device would hold after every entity of parsed
// had been applied.
func FromParsed(parsed *declaration.Parsed) *Map {
	m := New()
	if parsed == nil {
		return m
	}
	for class, entities := range parsed.Classes {
		for _, e := range entities {
			m.Add(class, e.Tenant, e.Name)
		}
	}
	return m
}

// Add records that name exists under tenant/class.
func (m *Map) Add(class declaration.Class, tenant, name string) {
	classes, ok := m.entries[tenant]
	if !ok {
		classes = make(map[declaration.Class]map[string]struct{})
		m.entries[tenant] = classes
	}
	names, ok := classes[class]
	if !ok {
		names = make(map[string]struct{})
		classes[class] = names
	}
	names[name] = struct{}{}
}

// Merge adds every entry of other to m and returns m.
func (m *Map) Merge(other *Map) *Map {
	other.Each(func(tenant string, class declaration.Class, name string) {
		m.Add(class, tenant, name)
	})
	return m
}

// Clone returns a deep copy of m.
func (m *Map) Clone() *Map {
	return New().Merge(m)
}

// Has implements Snapshot.
func (m *Map) Has(class declaration.Class, tenant, name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.entries[tenant][class][name]
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, classes := range m.entries {
		for _, names := range classes {
			n += len(names)
		}
	}
	return n
}

// Tenants returns the tenants present, sorted.
func (m *Map) Tenants() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.entries))
	for t := range m.entries {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Names returns the names recorded under tenant/class, sorted.
func (m *Map) Names(tenant string, class declaration.Class) []string {
	if m == nil {
		return nil
	}
	names := m.entries[tenant][class]
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Each calls fn for every entry.
func (m *Map) Each(fn func(tenant string, class declaration.Class, name string)) {
	for _, tenant := range m.Tenants() {
		classes := m.entries[tenant]
		keys := make([]string, 0, len(classes))
		for c := range classes {
			keys = append(keys, string(c))
		}
		sort.Strings(keys)
		for _, c := range keys {
			for _, name := range m.Names(tenant, declaration.Class(c)) {
				fn(tenant, declaration.Class(c), name)
			}
		}
	}
}

// MarshalJSON encodes the document shape read by Decode, with sorted name lists.
func (m *Map) MarshalJSON() ([]byte, error) {
	doc := make(map[string]map[string][]string, len(m.entries))
	m.Each(func(tenant string, class declaration.Class, name string) {
		if doc[tenant] == nil {
			doc[tenant] = make(map[string][]string)
		}
		doc[tenant][string(class)] = append(doc[tenant][string(class)], name)
	})
	return json.Marshal(doc)
}

// Decode reads a snapshot document (JSON or YAML). Entities may be listed as an
// array of names or as an object keyed by name; object entries whose value is
// false or null are treated as absent.
func Decode(r io.Reader) (*Map, error) {
	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	m := New()
	for tenant, rawClasses := range doc {
		classes, ok := rawClasses.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("snapshot tenant %s: expected object, got %T", tenant, rawClasses)
		}
		for className, rawNames := range classes {
			class, err := declaration.ParseClass(className)
			if err != nil {
				return nil, fmt.Errorf("snapshot tenant %s: %w", tenant, err)
			}
			switch names := rawNames.(type) {
			case []any:
				for _, n := range names {
					s, ok := n.(string)
					if !ok {
						return nil, fmt.Errorf("snapshot %s/%s: names must be strings, got %T", tenant, className, n)
					}
					m.Add(class, tenant, s)
				}
			case map[string]any:
				for name, v := range names {
					if present(v) {
						m.Add(class, tenant, name)
					}
				}
			case nil:
			default:
				return nil, fmt.Errorf("snapshot %s/%s: expected list or object, got %T", tenant, className, rawNames)
			}
		}
	}
	return m, nil
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	default:
		return true
	}
}

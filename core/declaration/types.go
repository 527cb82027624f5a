package declaration

// Ref points at the logical parent of an entity that was declared inside another
// entity.
type Ref struct {
	Class  Class  `json:"class"`
	Tenant string `json:"tenant"`
	Name   string `json:"name"`
}

// Entity is one declared object, flattened out of the declaration tree and tagged
// with its class and owning tenant. Entities are built once per parse and must be
// treated as read-only afterwards.
type Entity struct {
	// Class is the entity's discriminator.
	Class Class `json:"class"`

	// Tenant is the nearest ancestor Tenant container.
	Tenant string `json:"tenant"`

	// Name is the key the entity was declared under.
	Name string `json:"name"`

	// RawKey is the declared key without any normalization.
	RawKey string `json:"rawKey"`

	// Path is the slash-separated location in the declaration, e.g. "/Common/mySystem/myLicense".
	Path string `json:"path"`

	// Parent is set when the entity was declared inside another entity.
	Parent *Ref `json:"parent,omitempty"`

	// Attributes holds the declared properties, without "class" and without lifted
	// child entities.
	Attributes map[string]any `json:"attributes"`
}

// Ref returns a reference to e usable as a Parent pointer.
func (e *Entity) Ref() *Ref {
	return &Ref{Class: e.Class, Tenant: e.Tenant, Name: e.Name}
}

// ClassIndex maps a class to all entities of that class in declaration order.
type ClassIndex map[Class][]*Entity

// Parsed is the normalized declaration.
type Parsed struct {
	// Classes is the class-indexed view of every declared entity.
	Classes ClassIndex `json:"classes"`

	// Tenants lists tenant names in order of first appearance.
	Tenants []string `json:"tenants"`

	order []Class
}

func newParsed() *Parsed {
	return &Parsed{
		Classes: make(ClassIndex),
		Tenants: []string{},
	}
}

// Entities returns the entities of class c in declaration order.
func (p *Parsed) Entities(c Class) []*Entity {
	if p == nil {
		return nil
	}
	return p.Classes[c]
}

// First returns the first declared entity of class c, or nil.
func (p *Parsed) First(c Class) *Entity {
	entities := p.Entities(c)
	if len(entities) == 0 {
		return nil
	}
	return entities[0]
}

// Lookup finds the entity of class c declared as name under tenant.
func (p *Parsed) Lookup(c Class, tenant, name string) *Entity {
	for _, e := range p.Entities(c) {
		if e.Tenant == tenant && e.Name == name {
			return e
		}
	}
	return nil
}

// ClassOrder returns the classes present in the declaration, in order of first
// appearance.
func (p *Parsed) ClassOrder() []Class {
	if p == nil {
		return nil
	}
	out := make([]Class, len(p.order))
	copy(out, p.order)
	return out
}

// Len returns the total number of entities.
func (p *Parsed) Len() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, entities := range p.Classes {
		n += len(entities)
	}
	return n
}

func (p *Parsed) add(e *Entity) {
	if _, ok := p.Classes[e.Class]; !ok {
		p.order = append(p.order, e.Class)
	}
	p.Classes[e.Class] = append(p.Classes[e.Class], e)
}

func (p *Parsed) addTenant(name string) {
	for _, t := range p.Tenants {
		if t == name {
			return
		}
	}
	p.Tenants = append(p.Tenants, name)
}

package declaration

import (
	"errors"
	"fmt"
)

type entityKey struct {
	class  Class
	tenant string
	name   string
}

type parser struct {
	out  *Parsed
	seen map[entityKey]string
	errs []error
}

// Parse normalizes a declaration held in plain maps. Map keys are walked in sorted
// order; use ParseDocument to keep declaration order.
func Parse(decl map[string]any) (*Parsed, error) {
	if decl == nil {
		return newParsed(), nil
	}
	return ParseDocument(FromMap(decl))
}

// ParseDocument normalizes a decoded declaration. It has no side effects and
// returns the same result for the same input.
func ParseDocument(root *Object) (*Parsed, error) {
	p := &parser{
		out:  newParsed(),
		seen: make(map[entityKey]string),
	}
	if root.Len() == 0 {
		return p.out, nil
	}

	root = unwrap(root)
	for _, key := range root.Keys {
		obj, ok := root.Values[key].(*Object)
		if !ok {
			// schemaVersion, async, label and other document properties
			continue
		}
		p.walkRoot(key, obj)
	}

	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	return p.out, nil
}

// unwrap strips a {"class": "DO", "declaration": {...}} envelope.
func unwrap(root *Object) *Object {
	if class, ok := root.class(); ok && class == wrapperDO {
		if inner, ok := root.Values["declaration"].(*Object); ok {
			return inner
		}
	}
	return root
}

func (p *parser) walkRoot(key string, obj *Object) {
	path := "/" + key
	name, ok := obj.class()
	if !ok {
		p.fail(&StructuralError{Path: path, Reason: "object has no class and no tenant ancestor"})
		return
	}
	if name == wrapperDevice || name == wrapperDO || name == wrapperControls {
		return
	}
	class, err := p.classAt(path, name)
	if err != nil {
		return
	}
	if !class.IsTenant() {
		p.fail(&StructuralError{Path: path, Reason: fmt.Sprintf("%s declared outside of a tenant", class)})
		return
	}

	p.out.addTenant(key)
	p.walkContainer(key, path, obj)
}

// walkContainer visits the members of a tenant or of a class-less container.
func (p *parser) walkContainer(tenant, path string, obj *Object) {
	for _, key := range obj.Keys {
		if key == "class" {
			continue
		}
		child, ok := obj.Values[key].(*Object)
		if !ok {
			continue
		}
		childPath := path + "/" + key
		name, hasClass := child.class()
		if !hasClass {
			p.walkContainer(tenant, childPath, child)
			continue
		}
		class, err := p.classAt(childPath, name)
		if err != nil {
			continue
		}
		if class.IsTenant() {
			p.fail(&StructuralError{Path: childPath, Reason: "tenants cannot be nested"})
			continue
		}
		p.addEntity(tenant, key, childPath, class, child, nil)
	}
}

// addEntity records obj and then, recursively, any entities declared inside it.
// The parent is indexed before its children.
func (p *parser) addEntity(tenant, key, path string, class Class, obj *Object, parent *Ref) {
	type lifted struct {
		key   string
		class Class
		obj   *Object
	}

	attrs := make(map[string]any, len(obj.Keys))
	var children []lifted
	for _, k := range obj.Keys {
		if k == "class" {
			continue
		}
		v := obj.Values[k]
		if child, ok := v.(*Object); ok {
			if name, hasClass := child.class(); hasClass {
				childPath := path + "/" + k
				childClass, err := p.classAt(childPath, name)
				if err != nil {
					continue
				}
				if childClass.IsTenant() {
					p.fail(&StructuralError{Path: childPath, Reason: "tenants cannot be nested"})
					continue
				}
				children = append(children, lifted{key: k, class: childClass, obj: child})
				continue
			}
		}
		attrs[k] = plain(v)
	}

	entity := &Entity{
		Class:      class,
		Tenant:     tenant,
		Name:       key,
		RawKey:     key,
		Path:       path,
		Parent:     parent,
		Attributes: attrs,
	}

	id := entityKey{class: class, tenant: tenant, name: key}
	if first, dup := p.seen[id]; dup {
		p.fail(&DuplicateEntityError{Class: class, Tenant: tenant, Name: key, Path: path, FirstPath: first})
		return
	}
	p.seen[id] = path
	p.out.add(entity)

	for _, c := range children {
		p.addEntity(tenant, c.key, path+"/"+c.key, c.class, c.obj, entity.Ref())
	}
}

func (p *parser) classAt(path, name string) (Class, error) {
	class, err := ParseClass(name)
	if err != nil {
		var unknown *UnknownClassError
		if errors.As(err, &unknown) {
			unknown.Path = path
		}
		p.fail(err)
		return "", err
	}
	return class, nil
}

func (p *parser) fail(err error) {
	p.errs = append(p.errs, err)
}

package declaration

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Object is a decoded mapping that remembers the order its keys were declared in.
// Values are *Object, []any or scalars.
type Object struct {
	Keys   []string
	Values map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{Values: make(map[string]any)}
}

// Set stores value under key, appending key if it is new.
func (o *Object) Set(key string, value any) {
	if _, exists := o.Values[key]; !exists {
		o.Keys = append(o.Keys, key)
	}
	o.Values[key] = value
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.Values[key]
	return v, ok
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Keys)
}

// Map converts o into plain nested maps and slices.
func (o *Object) Map() map[string]any {
	if o == nil {
		return nil
	}
	out := make(map[string]any, len(o.Keys))
	for _, k := range o.Keys {
		out[k] = plain(o.Values[k])
	}
	return out
}

func (o *Object) class() (string, bool) {
	v, ok := o.Values["class"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Decode reads a JSON or YAML declaration, keeping key order.
func Decode(r io.Reader) (*Object, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if err == io.EOF {
			return NewObject(), nil
		}
		return nil, fmt.Errorf("failed to decode declaration: %w", err)
	}

	value, err := fromNode(&node)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return NewObject(), nil
	}

	obj, ok := value.(*Object)
	if !ok {
		return nil, fmt.Errorf("declaration root must be an object, got %T", value)
	}
	return obj, nil
}

// FromMap wraps a plain map. Go maps carry no order, so keys are sorted to keep
// parsing deterministic.
func FromMap(m map[string]any) *Object {
	obj := NewObject()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		obj.Set(k, fromPlain(m[k]))
	}
	return obj
}

func fromPlain(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return FromMap(t)
	case *Object:
		return t
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = fromPlain(t[i])
		}
		return out
	default:
		return v
	}
}

func plain(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.Map()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = plain(t[i])
		}
		return out
	default:
		return v
	}
}

func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])
	case yaml.MappingNode:
		obj := NewObject()
		lines := make(map[string]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			if first, dup := lines[keyNode.Value]; dup {
				return nil, &DuplicateKeyError{Key: keyNode.Value, Line: keyNode.Line, FirstLine: first}
			}
			lines[keyNode.Value] = keyNode.Line
			val, err := fromNode(valNode)
			if err != nil {
				return nil, err
			}
			obj.Set(keyNode.Value, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}

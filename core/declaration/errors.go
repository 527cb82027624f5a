package declaration

import "fmt"

// StructuralError reports a declaration whose shape violates the tenant/class
// nesting rules.
type StructuralError struct {
	Path   string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("invalid declaration at %s: %s", e.Path, e.Reason)
}

// UnknownClassError reports a class discriminator that names no known class.
type UnknownClassError struct {
	Path  string
	Class string
}

func (e *UnknownClassError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("unknown class %q", e.Class)
	}
	return fmt.Sprintf("unknown class %q at %s", e.Class, e.Path)
}

// DuplicateEntityError reports two entities of one class sharing a tenant and name.
type DuplicateEntityError struct {
	Class     Class
	Tenant    string
	Name      string
	Path      string
	FirstPath string
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("duplicate %s %q in tenant %s at %s (first declared at %s)",
		e.Class, e.Name, e.Tenant, e.Path, e.FirstPath)
}

// DuplicateKeyError reports a key repeated within one object of the decoded
// document. Decoders would otherwise keep only the last value.
type DuplicateKeyError struct {
	Key       string
	Line      int
	FirstLine int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("line %d: duplicate key %q (first declared on line %d)", e.Line, e.Key, e.FirstLine)
}

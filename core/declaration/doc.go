// Package declaration turns a nested, human-authored device declaration into a
// class-indexed model.
//
// A declaration is a tree of named objects. Root-level objects carrying
// `class: "Tenant"` open a partition; every object beneath a tenant that carries
// a `class` discriminator is an entity of that class. Objects without a class are
// plain containers and are walked through transparently. Entities may hold further
// entities (a System holding a License); those are lifted into the index under
// their own class and keep a reference to their parent.
//
// # Output
//
// Parse produces a Parsed value:
//   - Classes: class name -> entities of that class, in declaration order.
//   - Tenants: tenant names, de-duplicated, in order of first appearance.
//
// # Errors
//
// Parsing is strict. Orphaned entities, nested tenants, unknown classes and
// duplicate (class, tenant, name) triples are reported with the declaration path
// that caused them. All problems found in one pass are joined into a single error.
//
// # Usage
//
//	doc, err := declaration.Decode(file)
//	if err != nil {
//	    return err
//	}
//	parsed, err := declaration.ParseDocument(doc)
//	for _, dc := range parsed.Entities(declaration.ClassGSLBDataCenter) {
//	    fmt.Println(dc.Tenant, dc.Name)
//	}
package declaration

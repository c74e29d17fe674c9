// Package types defines the value-level schema model shared by the
// differ, verifier, appliers, and storage engine: properties, object
// schemas, schemas, and the SchemaChange sum type they are diffed into.
package types

import "fmt"

// BaseType is the underlying value kind of a Property, independent of the
// Nullable and CollectionKind flags that modify it.
type BaseType int

const (
	Int BaseType = iota
	Bool
	Float
	Double
	String
	Date
	Data
	ObjectId
	Decimal
	UUID
	Mixed
	Object         // link to another class
	LinkingObjects // computed backlink; never has its own column
)

func (b BaseType) String() string {
	switch b {
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Float:
		return "float"
	case Double:
		return "double"
	case String:
		return "string"
	case Date:
		return "date"
	case Data:
		return "data"
	case ObjectId:
		return "objectId"
	case Decimal:
		return "decimal128"
	case UUID:
		return "uuid"
	case Mixed:
		return "mixed"
	case Object:
		return "object"
	case LinkingObjects:
		return "linkingObjects"
	default:
		return "unknown"
	}
}

// CollectionKind describes the shape of a property's persisted value.
type CollectionKind int

const (
	CollectionNone CollectionKind = iota
	CollectionList
	CollectionSet
	CollectionDictionary
)

func (c CollectionKind) String() string {
	switch c {
	case CollectionList:
		return "list"
	case CollectionSet:
		return "set"
	case CollectionDictionary:
		return "dictionary"
	default:
		return ""
	}
}

// IndexType describes the kind of index, if any, on a property.
type IndexType int

const (
	IndexNone IndexType = iota
	IndexGeneral
	IndexFulltext
)

// PropertyType bundles a BaseType with the two orthogonal flags that
// modify it. It is a value type: comparing two PropertyType values with
// == is a correct equality check.
type PropertyType struct {
	Base       BaseType
	Nullable   bool
	Collection CollectionKind
}

// Property is a single field of a class.
type Property struct {
	Name    string
	Type    PropertyType
	IsPrimary bool
	Index   IndexType

	// ObjectType names the target class for Object and LinkingObjects
	// properties; empty otherwise.
	ObjectType string

	// LinkOriginProperty names the Object-typed property on ObjectType that
	// induces this computed backlink. Only meaningful for LinkingObjects.
	LinkOriginProperty string

	// ColumnKey is resolved against the storage engine once the owning
	// schema is bound to a Group. It is the zero value until then.
	ColumnKey ColumnKey
}

// RequiresIndex reports whether the property needs a general-purpose
// index. Fulltext is handled separately by RequiresFulltextIndex.
func (p Property) RequiresIndex() bool {
	return p.Index == IndexGeneral
}

// RequiresFulltextIndex reports whether the property needs a fulltext
// index. Fulltext is only legal on non-nullable String; neither this
// accessor nor schema ingestion (internal/config) checks that.
func (p Property) RequiresFulltextIndex() bool {
	return p.Index == IndexFulltext
}

// TypeString renders the property's type the way validation messages
// quote it, e.g. "string?" or "object<Dog>[]".
func (p Property) TypeString() string {
	s := p.Type.Base.String()
	if p.Type.Base == Object || p.Type.Base == LinkingObjects {
		s = fmt.Sprintf("%s<%s>", s, p.ObjectType)
	}
	switch p.Type.Collection {
	case CollectionList:
		s += "[]"
	case CollectionSet:
		s += "<>"
	case CollectionDictionary:
		s += "{}"
	}
	if p.Type.Nullable {
		s += "?"
	}
	return s
}

// sameTypeAndTarget reports whether two properties have the same base
// kind, collection kind, and (for links) target class — the same
// comparison the differ's own sameTypeAndLinkTarget makes to decide
// ChangePropertyType, independent of nullability and indexing which are
// tracked separately.
func sameTypeAndTarget(a, b Property) bool {
	if a.Type.Base != b.Type.Base || a.Type.Collection != b.Type.Collection {
		return false
	}
	if a.Type.Base == Object || a.Type.Base == LinkingObjects {
		return a.ObjectType == b.ObjectType
	}
	return true
}

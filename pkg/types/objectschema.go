package types

// TableType is the storage shape of a class.
type TableType int

const (
	TopLevel TableType = iota
	Embedded
	TopLevelAsymmetric
)

func (t TableType) String() string {
	switch t {
	case Embedded:
		return "embedded"
	case TopLevelAsymmetric:
		return "asymmetric"
	default:
		return "topLevel"
	}
}

// ObjectSchema describes one class: its persisted properties, its
// computed (LinkingObjects) properties, and its primary key.
type ObjectSchema struct {
	Name      string
	TableType TableType

	// PersistedProperties is in insertion order. Order is preserved for
	// stable diff output but is not otherwise semantically significant.
	PersistedProperties []Property

	// ComputedProperties holds LinkingObjects properties, which never have
	// a backing column of their own.
	ComputedProperties []Property

	// PrimaryKey is the name of the primary-key property, or "" if none.
	PrimaryKey string

	// TableKey is bound once this schema has been materialized against a
	// Group; zero value until then.
	TableKey TableKey
}

// PrimaryKeyProperty returns a pointer into PersistedProperties for the
// primary key property, or nil if PrimaryKey is empty. The pointer aliases
// the slice element so callers may mutate ColumnKey in place.
func (o *ObjectSchema) PrimaryKeyProperty() *Property {
	if o.PrimaryKey == "" {
		return nil
	}
	for i := range o.PersistedProperties {
		if o.PersistedProperties[i].Name == o.PrimaryKey {
			return &o.PersistedProperties[i]
		}
	}
	return nil
}

// PropertyForName looks up a persisted property by name.
func (o *ObjectSchema) PropertyForName(name string) *Property {
	for i := range o.PersistedProperties {
		if o.PersistedProperties[i].Name == name {
			return &o.PersistedProperties[i]
		}
	}
	return nil
}

// ComputedPropertyForName looks up a computed (LinkingObjects) property by
// name.
func (o *ObjectSchema) ComputedPropertyForName(name string) *Property {
	for i := range o.ComputedProperties {
		if o.ComputedProperties[i].Name == name {
			return &o.ComputedProperties[i]
		}
	}
	return nil
}

// Clone returns a deep-enough copy: the property slices are copied so that
// mutating ColumnKey on the clone never aliases the original.
func (o ObjectSchema) Clone() ObjectSchema {
	cp := o
	cp.PersistedProperties = append([]Property(nil), o.PersistedProperties...)
	cp.ComputedProperties = append([]Property(nil), o.ComputedProperties...)
	return cp
}

package types

// SchemaChange is the sum type emitted by the differ. Each variant below
// implements it; callers type-switch over the concrete variants, an
// exhaustive Go type switch standing in for a visitor so the compiler
// can't silently let a variant fall through unhandled.
type SchemaChange interface {
	// NeedsMigration reports whether applying this change outside of a
	// migration is illegal under Automatic/Immutable/ReadOnly/Manual mode.
	NeedsMigration() bool
	// isSchemaChange is unexported so SchemaChange can only be implemented
	// inside this package.
	isSchemaChange()
}

// AddTable: a class exists in target but not in old.
type AddTable struct{ Object *ObjectSchema }

// RemoveTable: a class exists in old but not in target. Never applied
// automatically by any applier; carried only so verifiers can reject it.
type RemoveTable struct{ Object *ObjectSchema }

// ChangeTableType: a class's TableType differs between old and target.
type ChangeTableType struct {
	Object           *ObjectSchema
	OldType, NewType TableType
}

// AddInitialProperties always follows the AddTable for the same class; it
// carries no information beyond the class identity and exists purely to
// let two-phase table creation interleave column creation after every
// table has been created.
type AddInitialProperties struct{ Object *ObjectSchema }

// AddProperty: a property exists in target but not old for a shared class.
type AddProperty struct {
	Object   *ObjectSchema
	Property *Property
}

// RemoveProperty: a property exists in old but not target for a shared class.
type RemoveProperty struct {
	Object   *ObjectSchema
	Property *Property
}

// ChangePropertyType: base kind, collection kind, or link target differs.
type ChangePropertyType struct {
	Object                 *ObjectSchema
	OldProperty, NewProperty *Property
}

// MakePropertyNullable: old is required, target is nullable.
type MakePropertyNullable struct {
	Object   *ObjectSchema
	Property *Property
}

// MakePropertyRequired: old is nullable, target is required.
type MakePropertyRequired struct {
	Object   *ObjectSchema
	Property *Property
}

// ChangePrimaryKey: the class's primary key property differs. Property is
// nil when the new primary key is "none".
type ChangePrimaryKey struct {
	Object   *ObjectSchema
	Property *Property
}

// AddIndex: target adds an index old didn't have.
type AddIndex struct {
	Object   *ObjectSchema
	Property *Property
	Type     IndexType
}

// RemoveIndex: target removes an index old had.
type RemoveIndex struct {
	Object   *ObjectSchema
	Property *Property
}

func (AddTable) isSchemaChange()              {}
func (RemoveTable) isSchemaChange()           {}
func (ChangeTableType) isSchemaChange()       {}
func (AddInitialProperties) isSchemaChange()  {}
func (AddProperty) isSchemaChange()           {}
func (RemoveProperty) isSchemaChange()        {}
func (ChangePropertyType) isSchemaChange()    {}
func (MakePropertyNullable) isSchemaChange()  {}
func (MakePropertyRequired) isSchemaChange()  {}
func (ChangePrimaryKey) isSchemaChange()      {}
func (AddIndex) isSchemaChange()              {}
func (RemoveIndex) isSchemaChange()           {}

// NeedsMigration implementations follow the "yes"/"no" column of the
// SchemaChange table: only structural changes that can alter or discard
// already-persisted data require a migration.
func (AddTable) NeedsMigration() bool              { return false }
func (RemoveTable) NeedsMigration() bool           { return false }
func (ChangeTableType) NeedsMigration() bool       { return true }
func (AddInitialProperties) NeedsMigration() bool  { return false }
func (AddProperty) NeedsMigration() bool           { return true }
func (RemoveProperty) NeedsMigration() bool        { return true }
func (ChangePropertyType) NeedsMigration() bool    { return true }
func (MakePropertyNullable) NeedsMigration() bool  { return true }
func (MakePropertyRequired) NeedsMigration() bool  { return true }
func (ChangePrimaryKey) NeedsMigration() bool      { return true }
func (AddIndex) NeedsMigration() bool              { return false }
func (RemoveIndex) NeedsMigration() bool           { return false }

// NeedsMigration reports whether any change in the list requires a
// migration, i.e. is illegal to apply outside of Automatic's migration
// path / Manual's callback.
func NeedsMigration(changes []SchemaChange) bool {
	for _, c := range changes {
		if c.NeedsMigration() {
			return true
		}
	}
	return false
}

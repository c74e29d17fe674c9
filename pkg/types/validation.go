package types

import "fmt"

// ValidationIssue is one human-readable line describing an offending
// schema change, the Go analogue of ObjectSchemaValidationException.
// Verifiers accumulate one per disallowed change before a caller wraps
// the full list in a single error.
type ValidationIssue struct {
	Message string
}

func (v ValidationIssue) String() string { return v.Message }

// ExplainChange renders a human-readable description of a SchemaChange,
// for use by every verifier that needs to report *why* a change is
// illegal. RemoveTable and AddInitialProperties render to the empty
// string: RemoveTable is silently never applied, and AddInitialProperties
// is always preceded by, and explained via, its AddTable.
func ExplainChange(c SchemaChange) string {
	switch op := c.(type) {
	case AddTable:
		return fmt.Sprintf("Class '%s' has been added.", op.Object.Name)
	case RemoveTable:
		return ""
	case ChangeTableType:
		return fmt.Sprintf("Class '%s' has been changed from %s to %s.", op.Object.Name, op.OldType, op.NewType)
	case AddInitialProperties:
		return ""
	case AddProperty:
		return fmt.Sprintf("Property '%s.%s' has been added.", op.Object.Name, op.Property.Name)
	case RemoveProperty:
		return fmt.Sprintf("Property '%s.%s' has been removed.", op.Object.Name, op.Property.Name)
	case ChangePropertyType:
		return fmt.Sprintf("Property '%s.%s' has been changed from '%s' to '%s'.",
			op.Object.Name, op.NewProperty.Name, op.OldProperty.TypeString(), op.NewProperty.TypeString())
	case MakePropertyNullable:
		return fmt.Sprintf("Property '%s.%s' has been made optional.", op.Object.Name, op.Property.Name)
	case MakePropertyRequired:
		return fmt.Sprintf("Property '%s.%s' has been made required.", op.Object.Name, op.Property.Name)
	case ChangePrimaryKey:
		switch {
		case op.Property != nil && op.Object.PrimaryKey != "":
			return fmt.Sprintf("Primary Key for class '%s' has changed from '%s' to '%s'.",
				op.Object.Name, op.Object.PrimaryKey, op.Property.Name)
		case op.Property != nil:
			return fmt.Sprintf("Primary Key for class '%s' has been added.", op.Object.Name)
		default:
			return fmt.Sprintf("Primary Key for class '%s' has been removed.", op.Object.Name)
		}
	case AddIndex:
		return fmt.Sprintf("Property '%s.%s' has been made indexed.", op.Object.Name, op.Property.Name)
	case RemoveIndex:
		return fmt.Sprintf("Property '%s.%s' has been made unindexed.", op.Object.Name, op.Property.Name)
	default:
		return fmt.Sprintf("unrecognized schema change %T", c)
	}
}

// ExplainAll renders every change in order, skipping the empty
// explanations that RemoveTable/AddInitialProperties produce.
func ExplainAll(changes []SchemaChange) []ValidationIssue {
	var issues []ValidationIssue
	for _, c := range changes {
		if msg := ExplainChange(c); msg != "" {
			issues = append(issues, ValidationIssue{Message: msg})
		}
	}
	return issues
}

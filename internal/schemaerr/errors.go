// Package schemaerr provides the structured error type used throughout
// the schema evolution engine, grounded on the same
// category+code+retryable shape the rest of the system uses for storage
// and manifest errors.
package schemaerr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arkilian/schemaengine/pkg/types"
)

// Category classifies an error by the pipeline stage that raised it.
type Category string

const (
	CategoryVersion    Category = "VERSION"
	CategoryValidation Category = "VALIDATION"
	CategoryMismatch   Category = "MISMATCH"
	CategoryChange     Category = "CHANGE"
	CategoryProperty   Category = "PROPERTY"
	CategoryTable      Category = "TABLE"
	CategoryOperation  Category = "OPERATION"
)

// Kind is a specific error code within a Category.
type Kind string

const (
	KindInvalidSchemaVersion        Kind = "INVALID_SCHEMA_VERSION"
	KindSchemaValidationFailed      Kind = "SCHEMA_VALIDATION_FAILED"
	KindSchemaMismatch              Kind = "SCHEMA_MISMATCH"
	KindInvalidReadOnlySchemaChange Kind = "INVALID_READONLY_SCHEMA_CHANGE"
	KindInvalidAdditiveSchemaChange Kind = "INVALID_ADDITIVE_SCHEMA_CHANGE"
	KindInvalidExternalSchemaChange Kind = "INVALID_EXTERNAL_SCHEMA_CHANGE"
	KindInvalidProperty             Kind = "INVALID_PROPERTY"
	KindNoSuchTable                 Kind = "NO_SUCH_TABLE"
	KindIllegalOperation            Kind = "ILLEGAL_OPERATION"
)

var categoryByKind = map[Kind]Category{
	KindInvalidSchemaVersion:        CategoryVersion,
	KindSchemaValidationFailed:      CategoryValidation,
	KindSchemaMismatch:              CategoryMismatch,
	KindInvalidReadOnlySchemaChange: CategoryChange,
	KindInvalidAdditiveSchemaChange: CategoryChange,
	KindInvalidExternalSchemaChange: CategoryChange,
	KindInvalidProperty:             CategoryProperty,
	KindNoSuchTable:                 CategoryTable,
	KindIllegalOperation:            CategoryOperation,
}

// developmentModeHint is appended to additive/external change errors.
const developmentModeHint = "If your app is running in development mode, you can delete the realm and restart the app to update your schema."

// Error is the structured error type raised by every validation and
// orchestration failure in this module.
type Error struct {
	Category Category
	Kind     Kind
	Message  string
	Issues   []types.ValidationIssue
	Cause    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s:%s] %s", e.Category, e.Kind, e.Message))
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on Kind, so errors.Is(err, schemaerr.NewKind(KindNoSuchTable))
// works regardless of message contents.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// NewKind returns a bare Error carrying only a Kind, suitable as an
// errors.Is target.
func NewKind(kind Kind) *Error { return &Error{Kind: kind} }

// NewValidation builds the accumulated-issues error for a given kind from
// a batch of accumulated validation issues.
func NewValidation(kind Kind, issues []types.ValidationIssue) *Error {
	msg := messageForKind(kind)
	if kind == KindInvalidAdditiveSchemaChange || kind == KindInvalidExternalSchemaChange {
		msg = msg + " " + developmentModeHint
	}
	return &Error{
		Category: categoryByKind[kind],
		Kind:     kind,
		Message:  msg,
		Issues:   issues,
	}
}

func messageForKind(kind Kind) string {
	switch kind {
	case KindSchemaMismatch:
		return "Migration is required due to the following errors:"
	case KindInvalidReadOnlySchemaChange:
		return "The following changes cannot be made in read-only schema mode:"
	case KindInvalidAdditiveSchemaChange:
		return "The following changes cannot be made in additive-only schema mode:"
	case KindInvalidExternalSchemaChange:
		return "Unsupported schema changes were made by another client or process:"
	default:
		return "Schema change validation failed:"
	}
}

// InvalidSchemaVersion reports a target version that regressed relative
// to the persisted version, or a Manual-mode equality violation.
func InvalidSchemaVersion(oldVersion, newVersion uint64, mustExactlyEqual bool) *Error {
	var msg string
	if mustExactlyEqual {
		msg = fmt.Sprintf("Provided schema version %d does not equal last set version %d.", newVersion, oldVersion)
	} else {
		msg = fmt.Sprintf("Provided schema version %d is less than last set version %d.", newVersion, oldVersion)
	}
	return &Error{Category: CategoryVersion, Kind: KindInvalidSchemaVersion, Message: msg}
}

// SchemaValidationFailed reports that a target schema violates intrinsic
// invariants (primary-key uniqueness, invalid type/index combination).
func SchemaValidationFailed(cause error) *Error {
	return &Error{
		Category: CategoryValidation,
		Kind:     KindSchemaValidationFailed,
		Message:  "Schema validation failed",
		Cause:    cause,
	}
}

// InvalidProperty reports a renamed-property target missing during
// post-migration application.
func InvalidProperty(class, property string) *Error {
	return &Error{
		Category: CategoryProperty,
		Kind:     KindInvalidProperty,
		Message:  fmt.Sprintf("Renamed property '%s.%s' does not exist.", class, property),
	}
}

// NoSuchTable reports a rename invoked on a missing class.
func NoSuchTable(format string, args ...interface{}) *Error {
	return &Error{
		Category: CategoryTable,
		Kind:     KindNoSuchTable,
		Message:  fmt.Sprintf(format, args...),
	}
}

// IllegalOperation reports a type-incompatible or nullability-narrowing
// rename.
func IllegalOperation(format string, args ...interface{}) *Error {
	return &Error{
		Category: CategoryOperation,
		Kind:     KindIllegalOperation,
		Message:  fmt.Sprintf(format, args...),
	}
}

package types

import "errors"

// Sentinel errors for malformed schema values. No function in this module
// returns them: neither schema ingestion (internal/config) nor
// diff/verify/apply checks these conditions.
var (
	ErrDuplicatePrimaryKey  = errors.New("types: more than one property marked primary")
	ErrPrimaryKeyNotFound   = errors.New("types: primary_key names a property that does not exist")
	ErrFulltextOnNullable   = errors.New("types: fulltext index is only valid on a non-nullable string property")
	ErrFulltextOnWrongType  = errors.New("types: fulltext index is only valid on string properties")
	ErrGeneralIndexOnType   = errors.New("types: general index is not valid on this property type")
	ErrEmbeddedHasPrimaryKey = errors.New("types: embedded classes may not declare a primary key")
)

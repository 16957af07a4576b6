package gephi

import "errors"

var (
	// ErrMissingLabel is returned when an entity has no first label block.
	ErrMissingLabel = errors.New("gephi: entity has no label")

	// ErrUnknownCategory is returned when a property or entity references a
	// category that is not declared.
	ErrUnknownCategory = errors.New("gephi: unknown category")

	// ErrUnknownEntity is returned when an attribute or placement references
	// an entity that has no node row.
	ErrUnknownEntity = errors.New("gephi: unknown entity")

	// ErrUnknownProperty is returned when an attribute references an
	// undeclared property.
	ErrUnknownProperty = errors.New("gephi: unknown property")

	// ErrUnknownPlacement is returned when an edge or group references a
	// placement id that is not in the document.
	ErrUnknownPlacement = errors.New("gephi: unknown placement")

	// ErrUnknownThickness is returned for a thickness outside dashed, medium
	// and large.
	ErrUnknownThickness = errors.New("gephi: unknown edge thickness")

	// ErrEdgeIDCollision is returned when two output edges would share an id.
	ErrEdgeIDCollision = errors.New("gephi: edge id collision")

	// ErrUndeclaredColumn is returned when a row is written outside the
	// table's declared columns.
	ErrUndeclaredColumn = errors.New("gephi: undeclared column")

	// ErrDuplicateColumn is returned when a table header would name the
	// same column twice.
	ErrDuplicateColumn = errors.New("gephi: duplicate column")

	// ErrInvalidIDScheme is returned for an unrecognized id scheme.
	ErrInvalidIDScheme = errors.New("gephi: invalid id scheme")
)

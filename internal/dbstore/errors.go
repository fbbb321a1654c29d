package dbstore

import "errors"

var (
	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("dbstore closed")

	// ErrInvalidName indicates a namespace, schema or field name that is
	// not an identifier.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidSchema indicates a malformed schema definition.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrUnknownField indicates a field the schema does not declare.
	ErrUnknownField = errors.New("unknown field")

	// ErrTypeMismatch indicates a value of the wrong type for its field.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidSelector indicates a selector that cannot be rendered.
	ErrInvalidSelector = errors.New("invalid selector")

	// ErrSchemaExists indicates the schema was already created.
	ErrSchemaExists = errors.New("schema exists")

	// ErrSchemaNotFound indicates the schema does not exist.
	ErrSchemaNotFound = errors.New("schema not found")
)

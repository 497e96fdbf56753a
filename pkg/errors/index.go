package errors

// IndexError provides specialized error handling for in-memory table
// operations — the MemTable's keyed view over pending writes. It extends
// the base error system with index-specific context while properly
// supporting method chaining through all base error methods.
type IndexError struct {
	// Embed the base error to inherit all standard error functionality
	// including error chaining, structured details, and error codes.
	*baseError

	// Describes what table operation was being performed when the
	// error occurred (e.g., "Get", "Put", "Close"). This context helps
	// understand the system state and operation sequence that led to
	// the error.
	operation string

	// Captures the number of live keys the table held at the time of
	// the error. This helps diagnose capacity-related issues and gives
	// scale context for the failure.
	indexSize int
}

// NewIndexError creates a new index-specific error with the provided context.
func NewIndexError(err error, code ErrorCode, msg string) *IndexError {
	return &IndexError{
		baseError: NewBaseError(err, code, msg),
	}
}

// WithMessage updates the error message while maintaining the IndexError type.
func (ie *IndexError) WithMessage(msg string) *IndexError {
	ie.baseError.WithMessage(msg)
	return ie
}

// WithCode sets the error code while preserving the IndexError type.
func (ie *IndexError) WithCode(code ErrorCode) *IndexError {
	ie.baseError.WithCode(code)
	return ie
}

// WithDetail adds contextual information while maintaining the IndexError type.
func (ie *IndexError) WithDetail(key string, value any) *IndexError {
	ie.baseError.WithDetail(key, value)
	return ie
}

// WithOperation records what table operation was being performed.
func (ie *IndexError) WithOperation(operation string) *IndexError {
	ie.operation = operation
	return ie
}

// WithIndexSize captures the number of live keys the table held when the
// error occurred.
func (ie *IndexError) WithIndexSize(size int) *IndexError {
	ie.indexSize = size
	return ie
}

// Operation returns the name of the operation that was being performed.
func (ie *IndexError) Operation() string {
	return ie.operation
}

// IndexSize returns the number of live keys the table held when the error
// occurred.
func (ie *IndexError) IndexSize() int {
	return ie.indexSize
}

// NewIndexCorruptionError creates an error for MemTable invariant
// violations, such as a caller using a table after it has been closed.
func NewIndexCorruptionError(operation string, indexSize int, cause error) *IndexError {
	return NewIndexError(cause, ErrorCodeIndexCorrupted, "in-memory table state corrupted").
		WithOperation(operation).
		WithIndexSize(indexSize).
		WithDetail("corruption_detected", true)
}

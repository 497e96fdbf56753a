package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary. This includes file system operations like reading or
	// writing segment files, network operations when communicating with remote
	// systems, and device I/O when accessing storage hardware.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints. This maps
	// to HTTP 400-series errors and indicates problems with the request itself
	// rather than system failures.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories. These are the equivalent of HTTP 500 errors and
	// indicate bugs, assertion failures, or other programming errors that
	// shouldn't occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Storage-specific error codes extend the base error taxonomy to handle the
// unique failure modes that occur in persistent storage systems. These codes
// represent problems that are specific to the storage layer of your key-value
// store, particularly focusing on segment file management and data persistence.
const (
	// ErrorCodePermissionDenied indicates insufficient permissions to access a resource.
	// This is distinct from generic IO errors because it has a specific resolution path:
	// the user needs to adjust file/directory permissions or run with elevated privileges.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates that the storage device has run out of space.
	// This requires specific handling like cleanup operations or alerting administrators.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates that the filesystem is mounted read-only.
	// This requires administrative intervention to remount the filesystem with write permissions.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"
)

// Index-specific error codes cover failures in the in-memory pending-write
// table.
const (
	// ErrorCodeIndexCorrupted indicates the in-memory table's invariants
	// (sorted key slice vs backing map) have diverged.
	ErrorCodeIndexCorrupted ErrorCode = "INDEX_CORRUPTED"
)

// Record/segment codec error codes cover the on-disk framing layer shared by
// the WAL and every segment file, plus the levels that sit above it.
const (
	// ErrorCodeCorrupt indicates a record failed its CRC check or its length
	// prefix does not match the bytes actually available.
	ErrorCodeCorrupt ErrorCode = "RECORD_CORRUPT"

	// ErrorCodeSerialize indicates a record could not be encoded or decoded
	// to/from its on-disk framing.
	ErrorCodeSerialize ErrorCode = "RECORD_SERIALIZE"

	// ErrorCodeKeyNotFound indicates the engine has no live value for a
	// requested key.
	ErrorCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"

	// ErrorCodeParse indicates a filename or on-disk header could not be
	// parsed into its expected structured form.
	ErrorCodeParse ErrorCode = "PARSE_ERROR"

	// ErrorCodeCompact indicates a level merge pass failed partway through
	// and could not produce a replacement segment.
	ErrorCodeCompact ErrorCode = "COMPACT_ERROR"
)

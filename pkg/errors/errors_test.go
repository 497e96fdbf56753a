package errors

import (
	stdErrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorruptErrorRoundTrip(t *testing.T) {
	cause := stdErrors.New("unexpected eof")
	err := NewCorruptError(cause, "short read").
		WithPath("/data/0.log").
		WithOffset(128).
		WithReason("short_read")

	assert.Equal(t, "short read", err.Error())
	assert.Equal(t, ErrorCodeCorrupt, err.Code())
	assert.Equal(t, "/data/0.log", err.Path())
	assert.Equal(t, int64(128), err.Offset())
	assert.Equal(t, "short_read", err.Reason())
	assert.ErrorIs(t, err, cause)

	assert.True(t, IsCorruptError(err))
	extracted, ok := AsCorruptError(err)
	require.True(t, ok)
	assert.Equal(t, err, extracted)
}

func TestAsCorruptErrorFailsForOtherTypes(t *testing.T) {
	_, ok := AsCorruptError(stdErrors.New("plain"))
	assert.False(t, ok)
}

func TestSerializeErrorRecordsField(t *testing.T) {
	err := NewSerializeError(nil, "value too large").WithField("value")
	assert.Equal(t, ErrorCodeSerialize, err.Code())
	assert.Equal(t, "value", err.Field())
}

func TestNewKeyNotFoundErrCarriesKeyDetail(t *testing.T) {
	err := NewKeyNotFoundErr("missing-key")
	assert.Equal(t, ErrorCodeKeyNotFound, err.Code())
	assert.Equal(t, "missing-key", err.Details()["key"])
}

func TestCompactErrorRecordsLevel(t *testing.T) {
	cause := stdErrors.New("disk full")
	err := NewCompactError(cause, "merge failed").WithLevel(2)
	assert.Equal(t, ErrorCodeCompact, err.Code())
	assert.Equal(t, 2, err.Level())
	assert.ErrorIs(t, err, cause)
}

func TestIndexCorruptionErrorRoundTrip(t *testing.T) {
	err := NewIndexCorruptionError("Close", 42, nil).WithDetail("reason", "already closed")
	assert.Equal(t, ErrorCodeIndexCorrupted, err.Code())
	assert.Equal(t, "Close", err.Operation())
	assert.Equal(t, 42, err.IndexSize())
	assert.True(t, IsIndexError(err))

	extracted, ok := AsIndexError(err)
	require.True(t, ok)
	assert.Equal(t, "already closed", extracted.Details()["reason"])
}

func TestRequiredFieldErrorIsInvalidInput(t *testing.T) {
	err := NewRequiredFieldError("key")
	assert.Equal(t, ErrorCodeInvalidInput, err.Code())
	assert.Equal(t, "key", err.Field())
	assert.Equal(t, "required", err.Rule())
	assert.True(t, IsValidationError(err))
}

func TestGetErrorCodeFallsBackToInternal(t *testing.T) {
	assert.Equal(t, ErrorCodeInternal, GetErrorCode(stdErrors.New("unclassified")))
	assert.Equal(t, ErrorCodeCorrupt, GetErrorCode(NewCorruptError(nil, "bad crc")))
}

package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataTable(t *testing.T) {
	expected := map[Code]Metadata{
		CodeValidation:        {HTTPStatus: http.StatusBadRequest, DetailsAllowed: true},
		CodeUnauthorized:      {HTTPStatus: http.StatusUnauthorized},
		CodeForbidden:         {HTTPStatus: http.StatusForbidden},
		CodeNotFound:          {HTTPStatus: http.StatusNotFound},
		CodeInvalidState:      {HTTPStatus: http.StatusConflict, DetailsAllowed: true},
		CodeConflict:          {HTTPStatus: http.StatusConflict, Retryable: true, DetailsAllowed: true},
		CodeResourceExhausted: {HTTPStatus: http.StatusBadRequest, DetailsAllowed: true},
		CodeIdempotency:       {HTTPStatus: http.StatusConflict, DetailsAllowed: true},
		CodeRateLimit:         {HTTPStatus: http.StatusTooManyRequests},
		CodeInternal:          {HTTPStatus: http.StatusInternalServerError, Retryable: true},
		CodeDependency:        {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, DetailsAllowed: true},
	}
	for code, want := range expected {
		t.Run(string(code), func(t *testing.T) {
			got := MetadataFor(code)
			assert.NotEmpty(t, got.PublicMessage)
			got.PublicMessage = ""
			assert.Equal(t, want, got)
		})
	}
}

func TestUnknownCodeFallsBackToInternal(t *testing.T) {
	assert.Equal(t, MetadataFor(CodeInternal), MetadataFor("LOCKER_ON_FIRE"))
}

func TestNewAndWithDetails(t *testing.T) {
	err := New(CodeValidation, "locker number is required")
	assert.Equal(t, CodeValidation, err.Code())
	assert.Equal(t, "locker number is required", err.Message())
	assert.Nil(t, err.Details())
	assert.Equal(t, "VALIDATION_ERROR: locker number is required", err.Error())

	err.WithDetails(map[string]string{"number": "is required"})
	assert.Equal(t, map[string]string{"number": "is required"}, err.Details())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("duplicate key")
	err := Wrap(CodeConflict, cause, "create locker")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeConflict, err.Code())
	assert.Equal(t, "CONFLICT: create locker: duplicate key", err.Error())

	bare := Wrap(CodeInternal, nil, "no cause")
	assert.Nil(t, bare.Unwrap())
}

func TestNilErrorIsSafe(t *testing.T) {
	var err *Error
	assert.Equal(t, CodeInternal, err.Code())
	assert.Empty(t, err.Message())
	assert.Empty(t, err.Error())
	assert.Nil(t, err.WithDetails("x"))
}

func TestAsAndIsCodeSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("approve: %w", New(CodeInvalidState, "application is not pending"))

	typed := As(err)
	require.NotNil(t, typed)
	assert.Equal(t, CodeInvalidState, typed.Code())
	assert.True(t, IsCode(err, CodeInvalidState))
	assert.False(t, IsCode(err, CodeConflict))
	assert.Nil(t, As(nil))
	assert.Nil(t, As(stdErrors.New("plain")))
}

package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypes_HTTPStatus(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{ValidationError("bad"), http.StatusBadRequest},
		{NotFoundError("missing"), http.StatusNotFound},
		{InternalError("broken", nil), http.StatusInternalServerError},
		{ExternalError("upstream down", nil), http.StatusBadGateway},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.HTTPStatus())
	}
}

func TestError_ErrorString(t *testing.T) {
	err := ValidationError("invalid follower count")
	assert.Equal(t, "validation: invalid follower count", err.Error())

	cause := fmt.Errorf("connection refused")
	wrapped := ExternalError("token exchange failed", cause)
	assert.Equal(t, "external: token exchange failed: connection refused", wrapped.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := InternalError("wrapper", cause)
	assert.ErrorIs(t, err, cause)
}

func TestError_WithField(t *testing.T) {
	err := ValidationError("invalid count").WithField("count", -1)
	assert.Equal(t, -1, err.Context["count"])

	resp := err.ToResponse()
	assert.Equal(t, "invalid count", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
	assert.Equal(t, -1, resp.Context["count"])
}

func TestAsStructuredError(t *testing.T) {
	structured := ValidationError("already structured")
	assert.Same(t, structured, AsStructuredError(structured))

	plain := fmt.Errorf("plain error")
	converted := AsStructuredError(plain)
	require.NotNil(t, converted)
	assert.Equal(t, TypeInternal, converted.Type)
	assert.ErrorIs(t, converted, plain)

	assert.Nil(t, AsStructuredError(nil))
}

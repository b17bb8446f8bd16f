package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	wrapped := fmt.Errorf("create silo: %w", Conflict("silo already exists"))
	got := FromError(wrapped)
	assert.Equal(t, http.StatusConflict, got.StatusCode)
	assert.Equal(t, "CONFLICT", got.Code)

	plain := FromError(errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, plain.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", plain.Code)
	assert.NotContains(t, plain.Message, "10.0.0.5")
}

func TestWithCodeAndDetails(t *testing.T) {
	got := Conflict("short by 3 kg").WithCode("ALLOCATION_ERROR")
	assert.Equal(t, "ALLOCATION_ERROR", got.Code)
	assert.Equal(t, http.StatusConflict, got.StatusCode)

	v := ValidationError("invalid input").WithDetails(FieldError{Field: "humidity", Message: "out of range"})
	require.Len(t, v.Details, 1)
	assert.Equal(t, "humidity", v.Details[0].Field)
}

func TestToJSONAndDecode(t *testing.T) {
	src := ValidationError("invalid input", FieldError{Field: "silo_id", Message: "silo_id is required"})
	body := src.ToJSON()
	assert.JSONEq(t, `{"success":false,"error":{"code":"VALIDATION_ERROR","message":"invalid input","details":[{"field":"silo_id","message":"silo_id is required"}]}}`, string(body))

	got := Decode(http.StatusBadRequest, body)
	assert.Equal(t, http.StatusBadRequest, got.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", got.Code)
	require.Len(t, got.Details, 1)

	garbage := Decode(http.StatusBadGateway, []byte("<html>"))
	assert.Equal(t, "UNEXPECTED_RESPONSE", garbage.Code)
	assert.Equal(t, http.StatusBadGateway, garbage.StatusCode)
}

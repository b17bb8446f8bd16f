package response

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"tracc-api/pkg/apierror"
)

func TestError_WritesAPIError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, fmt.Errorf("create outbound: %w", apierror.UnprocessableEntity(`insufficient stock in silo "Silo 1"`)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"error":{"code":"BUSINESS_RULE","message":"insufficient stock in silo \"Silo 1\""}}`, rec.Body.String())
}

func TestError_HidesUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, fmt.Errorf("query silos: %w", errStore))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

var errStore = fmt.Errorf("dial tcp 10.0.0.5:5432: connection refused")

func TestJSONWithMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONWithMeta(rec, http.StatusOK, []string{"a"}, 2, 10, 11)

	assert.JSONEq(t, `{"success":true,"data":["a"],"meta":{"page":2,"limit":10,"total":11}}`, rec.Body.String())
}

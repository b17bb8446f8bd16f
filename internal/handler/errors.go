package handler

import (
	"errors"
	"net/http"

	"tracc-api/internal/stock"
	"tracc-api/pkg/apierror"
	"tracc-api/pkg/response"
)

// writeError sends err as an API error response.
func writeError(w http.ResponseWriter, err error) {
	response.Error(w, toAPIError(err))
}

// toAPIError maps stock error kinds onto status codes. Errors that are
// neither *apierror.Error nor *stock.Error become a generic 500.
func toAPIError(err error) *apierror.Error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var se *stock.Error
	if !errors.As(err, &se) {
		return apierror.InternalError("")
	}

	switch se.Kind {
	case stock.KindValidation:
		details := make([]apierror.FieldError, 0, len(se.Fields))
		for _, f := range se.Fields {
			details = append(details, apierror.FieldError{Field: f.Field, Message: f.Message})
		}
		return apierror.ValidationError(se.Message).WithDetails(details...)
	case stock.KindBusiness:
		return apierror.UnprocessableEntity(se.Message)
	case stock.KindAllocation:
		return apierror.Conflict(se.Message).WithCode("ALLOCATION_ERROR")
	case stock.KindNotFound:
		return apierror.NotFound(se.Message)
	default:
		return apierror.InternalError("")
	}
}

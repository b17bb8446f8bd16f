package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tracc-api/internal/model"
	"tracc-api/pkg/apierror"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON request body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apierror.BadRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// parseTimeParam parses an optional RFC3339 query parameter.
func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apierror.ValidationError("invalid query parameter",
			apierror.FieldError{Field: name, Message: "must be an RFC3339 timestamp"})
	}
	t = t.UTC()
	return &t, nil
}

// parseDecimalParam parses a required decimal query parameter.
func parseDecimalParam(r *http.Request, name string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return decimal.Zero, apierror.ValidationError("missing query parameter",
			apierror.FieldError{Field: name, Message: name + " is required"})
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apierror.ValidationError("invalid query parameter",
			apierror.FieldError{Field: name, Message: "must be a decimal number"})
	}
	return d, nil
}

// parseIntParam parses an optional non-negative integer query parameter.
func parseIntParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apierror.ValidationError("invalid query parameter",
			apierror.FieldError{Field: name, Message: "must be a non-negative integer"})
	}
	return n, nil
}

// parseLedgerFilter reads silo_id (repeatable or comma separated), since and
// until from the query string.
func parseLedgerFilter(r *http.Request) (model.LedgerFilter, error) {
	var filter model.LedgerFilter
	for _, v := range r.URL.Query()["silo_id"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				filter.SiloIDs = append(filter.SiloIDs, id)
			}
		}
	}

	since, err := parseTimeParam(r, "since")
	if err != nil {
		return filter, err
	}
	until, err := parseTimeParam(r, "until")
	if err != nil {
		return filter, err
	}
	filter.Since, filter.Until = since, until
	return filter, nil
}

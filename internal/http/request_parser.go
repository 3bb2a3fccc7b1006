// Package http serves the JSON API.
//
// This file holds the request-side helpers: JSON decoding, struct validation
// and the parsing of path, query, amount and date values.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"faktura/internal/core"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidBody = errors.New("invalid JSON body")
	errInvalidID   = errors.New("invalid id")
)

// requestError is a client error with an optional per-field breakdown.
type requestError struct {
	status  int
	message string
	details map[string]string
}

func (e *requestError) Error() string { return e.message }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

func invalidField(field string, err error) error {
	return &requestError{
		status:  http.StatusUnprocessableEntity,
		message: fmt.Sprintf("%s: %v", field, err),
		details: map[string]string{field: err.Error()},
	}
}

// newValidator returns a validator that reports JSON field names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a single JSON object into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &requestError{status: http.StatusRequestEntityTooLarge, message: "request body too large"}
		}
		if errors.Is(err, io.EOF) {
			return badRequest("%v: empty body", errInvalidBody)
		}
		return badRequest("%v: %v", errInvalidBody, err)
	}
	if dec.More() {
		return badRequest("%v: trailing data", errInvalidBody)
	}
	return s.validateRequest(dst)
}

func (s *Server) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return badRequest("%v", err)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fieldPath(fe.Namespace())] = describeTag(fe)
	}
	return &requestError{
		status:  http.StatusUnprocessableEntity,
		message: "validation failed",
		details: details,
	}
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a date formatted " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("%v: %q", errInvalidID, r.PathValue("id"))
	}
	return id, nil
}

// parseAmountField parses a strictly positive money amount.
func parseAmountField(field, s string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero, invalidField(field, err)
	}
	return d, nil
}

// parseSignedAmount accepts any decimal, including zero and negatives.
func parseSignedAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Zero, invalidField(field, core.ErrInvalidAmount)
	}
	return core.RoundMoney(d), nil
}

// parseDecimalField parses a non-negative decimal such as a quantity or rate.
func parseDecimalField(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Zero, invalidField(field, fmt.Errorf("invalid number %q", s))
	}
	return d, nil
}

func parseDateField(field, s string) (time.Time, error) {
	t, err := core.ParseDate(s)
	if err != nil {
		return time.Time{}, invalidField(field, core.ErrInvalidDate)
	}
	return t, nil
}

// optionalDate returns the zero time for an empty string.
func optionalDate(field, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return parseDateField(field, s)
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("invalid %s %q: must be an integer", name, v)
	}
	return n, nil
}

package models

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCode is a typed string for categorizing prediction errors.
type ErrorCode string

const (
	// Validation (400)
	ErrCodeInvalidTimestamp ErrorCode = "validation_invalid_timestamp"
	ErrCodeMissingField     ErrorCode = "validation_missing_field"
	ErrCodeTypeMismatch     ErrorCode = "validation_type_mismatch"
	ErrCodeOutOfRange       ErrorCode = "validation_out_of_range"
	ErrCodeMalformedBody    ErrorCode = "validation_malformed_body"
	ErrCodeBatchSize        ErrorCode = "validation_batch_size"

	// Model capability (400)
	ErrCodeProbabilityUnsupported ErrorCode = "validation_probability_unsupported"
	ErrCodeRegressionUnsupported  ErrorCode = "validation_regression_unsupported"

	// Server (500/503)
	ErrCodeModelUnavailable ErrorCode = "unavailable_model"
	ErrCodeInference        ErrorCode = "internal_inference_failed"
	ErrCodeUnexpected       ErrorCode = "internal_unexpected_error"
)

var (
	ErrInvalidTimestamp       = errors.New("timestamp must be in 'YYYY-MM-DD HH:MM' format")
	ErrMissingField           = errors.New("missing required field")
	ErrTypeMismatch           = errors.New("field has wrong type")
	ErrOutOfRange             = errors.New("field out of range")
	ErrMalformedBody          = errors.New("request body is not a JSON object")
	ErrBatchSize              = errors.New("batch size out of bounds")
	ErrProbabilityUnsupported = errors.New("model does not support probability output")
	ErrRegressionUnsupported  = errors.New("model does not support precipitation estimates")
	ErrModelUnavailable       = errors.New("model unavailable")
	ErrInference              = errors.New("inference failed")
)

var codes = []struct {
	err  error
	code ErrorCode
}{
	{ErrInvalidTimestamp, ErrCodeInvalidTimestamp},
	{ErrMissingField, ErrCodeMissingField},
	{ErrTypeMismatch, ErrCodeTypeMismatch},
	{ErrOutOfRange, ErrCodeOutOfRange},
	{ErrMalformedBody, ErrCodeMalformedBody},
	{ErrBatchSize, ErrCodeBatchSize},
	{ErrProbabilityUnsupported, ErrCodeProbabilityUnsupported},
	{ErrRegressionUnsupported, ErrCodeRegressionUnsupported},
	{ErrModelUnavailable, ErrCodeModelUnavailable},
	{ErrInference, ErrCodeInference},
}

// Code resolves the ErrorCode of err by walking its chain.
func Code(err error) ErrorCode {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ErrCodeUnexpected
}

// HTTPStatus maps an ErrorCode to its HTTP status code.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "unavailable_"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FieldError identifies the payload field a validation error belongs to.
type FieldError struct {
	Field  string
	Detail string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Field, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ItemError locates a failure inside a batch.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("observation %d: %s", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// ErrorResponse is the JSON body for every rejected request.
type ErrorResponse struct {
	Error string    `json:"error" example:"humidity_percent: missing required field"`
	Code  ErrorCode `json:"code,omitempty" example:"validation_missing_field"`
	Field string    `json:"field,omitempty" example:"humidity_percent"`
	Index *int      `json:"index,omitempty" example:"0"`
}

// NewErrorResponse builds the wire error for err.
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Error: err.Error(),
		Code:  Code(err),
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		resp.Field = fe.Field
	}

	var ie *ItemError
	if errors.As(err, &ie) {
		idx := ie.Index
		resp.Index = &idx
	}

	return resp
}

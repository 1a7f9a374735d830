// Package object holds the small set of domain value types shared across
// the gateway: the structured HTTP error taxonomy implementing the error
// policy of spec §7.
package object

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/samber/lo"

	"knoway.dev/pkg/utils"
)

// LLMError is a failure that already carries an HTTP status and a
// client-safe message — an engine's structured HttpError{code, message}.
// Any other error is treated as internal and wrapped before it reaches a
// client.
type LLMError interface {
	error
	GetStatus() int
	GetMessage() string
}

func IsLLMError(err error) bool {
	var target *HttpError
	return errors.As(err, &target)
}

func AsLLMError(err error) LLMError {
	var target *HttpError
	if errors.As(err, &target) {
		return target
	}

	return nil
}

// HttpError is the wire error: a status in [400,500) from an engine is
// passed through verbatim; anything outside that range is remapped to 500
// by the handler before it reaches a client (spec §7).
type HttpError struct {
	Status  int
	Message string
}

func (e *HttpError) Error() string {
	return e.Message
}

func (e *HttpError) GetStatus() int {
	return e.Status
}

func (e *HttpError) GetMessage() string {
	return e.Message
}

// MarshalJSON produces the flat `{"error": "<message>"}` body spec §6
// mandates for every error response, streaming or not.
func (e *HttpError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"error": e.Message})
}

func NewErrorModelNotFound(_ string) *HttpError {
	return &HttpError{
		Status:  http.StatusNotFound,
		Message: "Model not found",
	}
}

func NewErrorMissingModel() *HttpError {
	return &HttpError{
		Status:  http.StatusBadRequest,
		Message: "Missing required parameter: 'model'.",
	}
}

func NewErrorRateLimitExceeded() *HttpError {
	return &HttpError{
		Status:  http.StatusTooManyRequests,
		Message: "You have exceeded the rate limit. Please try again later.",
	}
}

func NewErrorInternalError(internalErrs ...error) *HttpError {
	internalErrs = append(internalErrs, errors.New("internal error"))

	return &HttpError{
		Status:  http.StatusInternalServerError,
		Message: lo.Must(lo.Coalesce(internalErrs...)).Error(),
	}
}

// NewErrorInternalErrorWithMessage is NewErrorInternalError with altMsg
// prefixed onto the wrapped error's text as "<altMsg>: <err>", matching the
// Rust source's `ErrorResponse::from_anyhow(err, alt_msg)`. An empty altMsg
// behaves exactly like NewErrorInternalError.
func NewErrorInternalErrorWithMessage(altMsg string, internalErrs ...error) *HttpError {
	err := NewErrorInternalError(internalErrs...)

	if altMsg != "" {
		err.Message = altMsg + ": " + err.Message
	}

	return err
}

func NewErrorBadGateway(upstreamErr error) *HttpError {
	return &HttpError{
		Status:  http.StatusBadGateway,
		Message: lo.Must(lo.Coalesce(upstreamErr, errors.New("bad gateway"))).Error(),
	}
}

func NewErrorServiceUnavailable() *HttpError {
	return &HttpError{
		Status:  http.StatusServiceUnavailable,
		Message: "service unavailable",
	}
}

// AsHttpStatus clamps any status outside the structured client-error range
// to 500, per spec §7's "must be in range, else remapped" rule.
func AsHttpStatus(status int) int {
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return status
	}

	return http.StatusInternalServerError
}

// LLMErrorOrInternalError returns the first structured HttpError among
// anyErrs, or wraps the first non-nil error (or a bare "internal error") as
// one otherwise, prefixed with altMsg when the latter path is taken. This is
// the synchronous-invoke-failure path of spec §4.5 step 7 (an empty altMsg
// is equivalent to the bare wrap other call sites need).
func LLMErrorOrInternalError(altMsg string, anyErrs ...error) LLMError {
	anyErrs = lo.Filter(anyErrs, utils.FilterNonNil)

	for _, err := range anyErrs {
		if IsLLMError(err) {
			return AsLLMError(err)
		}
	}

	return NewErrorInternalErrorWithMessage(altMsg, anyErrs...)
}

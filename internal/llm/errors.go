// Package llm calls the generative text and image APIs with model fallback,
// strict-JSON negotiation, and tolerant output parsing.
package llm

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

var (
	// ErrNotConfigured indicates no API key is available.
	ErrNotConfigured = errors.New("generative API not configured")

	// ErrAllModelsFailed indicates every model in the fallback list failed.
	ErrAllModelsFailed = errors.New("all models failed")

	// ErrNoImageProduced indicates the image model answered without image data.
	ErrNoImageProduced = errors.New("model produced no image data")
)

// LLMError is a classified provider failure.
type LLMError struct {
	// Original error from the provider
	Err error

	// HTTP status code (if known)
	StatusCode int

	// Model that was being used
	Model string

	// Raw provider message
	RawMessage string

	// Error category (strict_json_rejected, rate_limit, transient, ...)
	Category string

	// Whether a same-model retry makes sense
	Retryable bool

	// Whether the strict-JSON response mode should be dropped and the call
	// retried in relaxed mode
	RetryRelaxed bool

	// Whether the next model in the fallback list should be tried
	ShouldFallback bool
}

func (e *LLMError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown LLM error"
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// strictModeMarkers appear in HTTP 400 messages when a model rejects the
// strict-JSON response configuration rather than the request itself.
var strictModeMarkers = []string{
	"responsejsonschema",
	"responseschema",
	"responsemimetype",
	"response_mime_type",
	"json mode",
	"invalid_argument",
}

// ClassifyError turns a raw provider error into a routing decision.
func ClassifyError(err error, model string) *LLMError {
	if err == nil {
		return nil
	}

	llmErr := &LLMError{
		Err:        err,
		StatusCode: statusCodeOf(err),
		Model:      model,
		RawMessage: err.Error(),
	}

	errStr := strings.ToLower(err.Error())

	switch llmErr.StatusCode {
	case http.StatusBadRequest:
		for _, marker := range strictModeMarkers {
			if strings.Contains(errStr, marker) {
				llmErr.Category = "strict_json_rejected"
				llmErr.RetryRelaxed = true
				return llmErr
			}
		}
		llmErr.Category = "bad_request"
		llmErr.ShouldFallback = true

	case http.StatusUnauthorized, http.StatusForbidden:
		// A bad key fails every model the same way; falling back just
		// burns time.
		llmErr.Category = "auth"

	case http.StatusTooManyRequests:
		llmErr.Category = "rate_limit"
		llmErr.Retryable = true
		llmErr.ShouldFallback = true

	case http.StatusBadGateway, http.StatusServiceUnavailable:
		llmErr.Category = "transient"
		llmErr.Retryable = true
		llmErr.ShouldFallback = true

	default:
		llmErr.Category = "provider_error"
		llmErr.ShouldFallback = true
	}
	return llmErr
}

// statusCodeOf extracts the HTTP status from a genai API error, falling back
// to message sniffing for wrapped transport errors.
func statusCodeOf(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	errStr := err.Error()
	for _, probe := range []struct {
		marker string
		code   int
	}{
		{"400", http.StatusBadRequest},
		{"401", http.StatusUnauthorized},
		{"403", http.StatusForbidden},
		{"429", http.StatusTooManyRequests},
		{"502", http.StatusBadGateway},
		{"503", http.StatusServiceUnavailable},
	} {
		if strings.Contains(errStr, probe.marker) {
			return probe.code
		}
	}
	return 0
}

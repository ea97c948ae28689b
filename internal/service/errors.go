package service

import (
	"errors"

	"github.com/doya-app/banner-api/internal/usage"
)

// Sentinel errors the HTTP layer maps to status codes and the fixed
// Japanese messages.
var (
	ErrInvalidURL       = errors.New("invalid target url")
	ErrPageUnreachable  = errors.New("target page unreachable")
	ErrInvalidSize      = errors.New("invalid banner size")
	ErrNotConfigured    = errors.New("generation api key not configured")
	ErrGenerationFailed = errors.New("banner generation failed")
)

// QuotaError carries the gate's rejection so the handler can return the
// 429 body with the usage block and upgrade URL.
type QuotaError struct {
	Decision *usage.Decision
}

func (e *QuotaError) Error() string {
	return e.Decision.Message
}

package smsactivate

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable wraps network level failures reaching the provider.
	ErrUnavailable = errors.New("sms provider unavailable")

	// ErrNoNumbers means no phone numbers are currently stocked for the service.
	ErrNoNumbers = errors.New("no phone numbers available")

	// ErrProviderBalance means the provider account itself is out of funds.
	ErrProviderBalance = errors.New("insufficient provider balance")

	// ErrBadKey means the configured API key was rejected.
	ErrBadKey = errors.New("invalid provider api key")

	// ErrProviderSQL is the provider's own server-side database failure.
	ErrProviderSQL = errors.New("provider server error")
)

// SentinelError carries a response body the client did not recognize. An
// unknown sentinel must surface, never silently succeed.
type SentinelError struct {
	Raw string
}

func (e *SentinelError) Error() string {
	return fmt.Sprintf("unexpected provider response %q", e.Raw)
}

// sentinelFailure maps the provider's named failure sentinels to typed errors
// and wraps anything else in a SentinelError.
func sentinelFailure(body string) error {
	switch body {
	case "NO_NUMBERS":
		return ErrNoNumbers
	case "NO_BALANCE":
		return ErrProviderBalance
	case "BAD_KEY":
		return ErrBadKey
	case "ERROR_SQL":
		return ErrProviderSQL
	default:
		return &SentinelError{Raw: body}
	}
}

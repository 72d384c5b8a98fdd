package activation

import (
	"context"
	"errors"
)

var (
	// ErrSessionNotFound indicates no session exists for the lease id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionTerminal rejects updates to a session already in success or
	// canceled state. Attempting one is a caller bug, never coerced.
	ErrSessionTerminal = errors.New("session already terminal")

	// ErrInvalidTransition rejects updates that violate the session
	// invariants (re-entering pending, success without a code).
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Store is the durable record of OTP sessions keyed by provider lease id,
// with a secondary index by owning user. Implementations survive process
// restarts; the in-memory variant exists for tests only.
type Store interface {
	Create(ctx context.Context, s Session) error
	Find(ctx context.Context, leaseID string) (Session, error)
	ListByUser(ctx context.Context, userID string) ([]Session, error)
	UpdateStatus(ctx context.Context, leaseID string, status Status, otp string) (Session, error)
}

// validateTransition enforces the shared update rules: only terminal targets,
// and an OTP exactly when the target is success.
func validateTransition(status Status, otp string) error {
	switch status {
	case StatusSuccess:
		if otp == "" {
			return ErrInvalidTransition
		}
	case StatusCanceled:
		if otp != "" {
			return ErrInvalidTransition
		}
	default:
		return ErrInvalidTransition
	}
	return nil
}

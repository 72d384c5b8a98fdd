package activation

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Poller drives the fixed-interval refresh loop for a session. The provider
// has no push channel for OTP arrival, so arrival is observed by polling.
type Poller struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller builds a poller refreshing at the given interval.
func NewPoller(service *Service, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{service: service, interval: interval, logger: logger}
}

// Watch refreshes the session every interval until it reaches a terminal
// state or ctx is canceled, sending each snapshot on the returned channel.
// The channel is closed when the loop stops; after that no further provider
// requests are issued.
func (p *Poller) Watch(ctx context.Context, leaseID string) <-chan Session {
	updates := make(chan Session, 1)

	go func() {
		defer close(updates)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			session, err := p.service.Refresh(ctx, leaseID)
			if err != nil {
				if errors.Is(err, ErrSessionNotFound) || ctx.Err() != nil {
					return
				}
				// Transient provider failure; the next tick re-polls.
				p.logger.Warn("refresh failed", slog.String("lease_id", leaseID), slog.Any("error", err))
				continue
			}

			select {
			case <-ctx.Done():
				return
			case updates <- session:
			}

			if session.Status.Terminal() {
				return
			}
		}
	}()

	return updates
}

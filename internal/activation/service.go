package activation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zepno/zepno/internal/catalog"
	"github.com/zepno/zepno/internal/notification"
	"github.com/zepno/zepno/internal/smsactivate"
	"github.com/zepno/zepno/internal/wallet"
)

var (
	// ErrServiceNotFound indicates the requested catalog service id is unknown.
	ErrServiceNotFound = errors.New("service not found")

	// ErrServiceInactive indicates the service is listed but not currently
	// purchasable.
	ErrServiceInactive = errors.New("service not active")
)

// Service orchestrates a purchase: quote against the wallet, lease a number
// from the provider, debit, and record the session. It also exposes the
// polling and cancel operations the UI drives.
type Service struct {
	provider smsactivate.Provider
	catalog  *catalog.Catalog
	ledger   wallet.Ledger
	store    Store
	notifier notification.Notifier
	country  string
	logger   *slog.Logger
}

// NewService wires the orchestrator's collaborators.
func NewService(provider smsactivate.Provider, cat *catalog.Catalog, ledger wallet.Ledger, store Store, notifier notification.Notifier, country string, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		catalog:  cat,
		ledger:   ledger,
		store:    store,
		notifier: notifier,
		country:  country,
		logger:   logger,
	}
}

// Purchase leases a number for the service and debits the wallet. The quote
// step fails before any provider call when the balance cannot cover the
// price; a debit failure after a successful lease cancels the lease with
// the provider so no unpaid activation stays live.
func (s *Service) Purchase(ctx context.Context, userID, serviceID string) (Session, error) {
	svc, ok := s.catalog.Find(ctx, serviceID)
	if !ok {
		return Session{}, ErrServiceNotFound
	}
	if !svc.Active {
		return Session{}, ErrServiceInactive
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	if balance.LessThan(svc.Price) {
		return Session{}, wallet.ErrInsufficientBalance
	}

	lease, err := s.provider.LeaseNumber(ctx, svc.Code, s.country)
	if err != nil {
		return Session{}, err
	}

	// Tell the provider we are listening for the SMS. Not fatal: the lease is
	// live either way and polling still works.
	if err := s.provider.SetStatus(ctx, lease.ID, smsactivate.StatusReady); err != nil {
		s.logger.Warn("mark lease ready failed", slog.String("lease_id", lease.ID), slog.Any("error", err))
	}

	if _, err := s.ledger.Debit(ctx, wallet.DebitInput{
		UserID:  userID,
		Amount:  svc.Price,
		Purpose: fmt.Sprintf("OTP for %s", svc.Name),
	}); err != nil {
		s.releaseLease(ctx, lease.ID)
		return Session{}, err
	}

	session := Session{
		ID:           lease.ID,
		UserID:       userID,
		ServiceID:    svc.ID,
		OperatorID:   DefaultOperatorID,
		Number:       lease.Number,
		SessionToken: lease.ID,
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, session); err != nil {
		// The debit landed but the session cannot be recorded; undo both.
		s.releaseLease(ctx, lease.ID)
		if _, rerr := s.ledger.Credit(ctx, wallet.CreditInput{
			UserID:  userID,
			Amount:  svc.Price,
			Purpose: fmt.Sprintf("Refund: OTP for %s", svc.Name),
		}); rerr != nil {
			s.logger.Error("refund after store failure failed", slog.String("user_id", userID), slog.Any("error", rerr))
		}
		return Session{}, err
	}

	return session, nil
}

// Refresh polls the provider once and applies the result. A terminal session
// is returned unchanged with no provider call.
func (s *Service) Refresh(ctx context.Context, leaseID string) (Session, error) {
	session, err := s.store.Find(ctx, leaseID)
	if err != nil {
		return Session{}, err
	}
	if session.Status.Terminal() {
		return session, nil
	}

	status, err := s.provider.GetStatus(ctx, leaseID)
	if err != nil {
		return Session{}, err
	}

	switch status.State {
	case smsactivate.StateReceived:
		updated, err := s.store.UpdateStatus(ctx, leaseID, StatusSuccess, status.Code)
		if err != nil {
			return Session{}, err
		}
		if s.notifier != nil {
			_ = s.notifier.Send(ctx, notification.Message{
				Kind:        notification.KindOTPReceived,
				Destination: updated.UserID,
				Body:        fmt.Sprintf("OTP arrived for number %s", updated.Number),
			})
		}
		return updated, nil
	case smsactivate.StateCanceled:
		return s.store.UpdateStatus(ctx, leaseID, StatusCanceled, "")
	default:
		return session, nil
	}
}

// Cancel drops the lease with the provider and marks the session canceled.
func (s *Service) Cancel(ctx context.Context, leaseID string) (Session, error) {
	session, err := s.store.Find(ctx, leaseID)
	if err != nil {
		return Session{}, err
	}
	if session.Status.Terminal() {
		return Session{}, ErrSessionTerminal
	}

	if err := s.provider.SetStatus(ctx, leaseID, smsactivate.StatusCancel); err != nil {
		return Session{}, err
	}
	return s.store.UpdateStatus(ctx, leaseID, StatusCanceled, "")
}

// Find returns one session by lease id.
func (s *Service) Find(ctx context.Context, leaseID string) (Session, error) {
	return s.store.Find(ctx, leaseID)
}

// Sessions lists a user's sessions.
func (s *Service) Sessions(ctx context.Context, userID string) ([]Session, error) {
	return s.store.ListByUser(ctx, userID)
}

// releaseLease is the compensating cancel used when a purchase fails after
// the number was already leased. Best effort: the provider also expires
// unconfirmed leases on its own timer.
func (s *Service) releaseLease(ctx context.Context, leaseID string) {
	if err := s.provider.SetStatus(ctx, leaseID, smsactivate.StatusCancel); err != nil {
		s.logger.Error("compensating cancel failed", slog.String("lease_id", leaseID), slog.Any("error", err))
	}
}

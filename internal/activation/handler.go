package activation

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zepno/zepno/internal/smsactivate"
	"github.com/zepno/zepno/internal/wallet"
)

// Provider leases expire after twenty minutes; background watches stop there.
const leaseLifetime = 20 * time.Minute

// Handler exposes the OTP session endpoints. Orchestrator failures are
// rendered as structured JSON so the UI can show an inline message.
type Handler struct {
	service *Service
	poller  *Poller
}

// NewHandler builds an activation HTTP handler. When a poller is supplied,
// each purchase starts a server-side watch so pending sessions resolve even
// if the client never calls refresh.
func NewHandler(service *Service, poller *Poller) *Handler {
	return &Handler{service: service, poller: poller}
}

type purchaseRequest struct {
	UserID    string `json:"user_id"`
	ServiceID string `json:"service_id"`
}

type sessionResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	ServiceID    string `json:"service_id"`
	OperatorID   string `json:"operator_id"`
	Number       string `json:"number"`
	OTP          string `json:"otp,omitempty"`
	SessionToken string `json:"session_token"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

// Purchase buys an activation for a catalog service.
func (h *Handler) Purchase(c *fiber.Ctx) error {
	var req purchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.UserID == "" || req.ServiceID == "" {
		return fiber.NewError(http.StatusBadRequest, "user_id and service_id are required")
	}

	session, err := h.service.Purchase(c.UserContext(), req.UserID, req.ServiceID)
	if err != nil {
		return failure(c, err)
	}
	if h.poller != nil {
		go h.watch(session.ID)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"success": true, "session": toResponse(session)})
}

// watch drains poller updates until the session settles or the lease expires.
func (h *Handler) watch(leaseID string) {
	ctx, cancel := context.WithTimeout(context.Background(), leaseLifetime)
	defer cancel()
	for range h.poller.Watch(ctx, leaseID) {
	}
}

// Get returns one session snapshot.
func (h *Handler) Get(c *fiber.Ctx) error {
	session, err := h.service.Find(c.UserContext(), c.Params("id"))
	if err != nil {
		return failure(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "session": toResponse(session)})
}

// List returns the sessions owned by a user.
func (h *Handler) List(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return fiber.NewError(http.StatusBadRequest, "user_id query parameter is required")
	}
	sessions, err := h.service.Sessions(c.UserContext(), userID)
	if err != nil {
		return failure(c, err)
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toResponse(session))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "sessions": out})
}

// Refresh polls the provider once for the session's status.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	session, err := h.service.Refresh(c.UserContext(), c.Params("id"))
	if err != nil {
		return failure(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "session": toResponse(session)})
}

// Cancel drops the lease and marks the session canceled.
func (h *Handler) Cancel(c *fiber.Ctx) error {
	session, err := h.service.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return failure(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "session": toResponse(session)})
}

func toResponse(session Session) sessionResponse {
	return sessionResponse{
		ID:           session.ID,
		UserID:       session.UserID,
		ServiceID:    session.ServiceID,
		OperatorID:   session.OperatorID,
		Number:       session.Number,
		OTP:          session.OTP,
		SessionToken: session.SessionToken,
		Status:       string(session.Status),
		CreatedAt:    session.CreatedAt.Format(time.RFC3339Nano),
	}
}

// failure maps orchestrator errors onto HTTP statuses with a structured body.
func failure(c *fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrServiceNotFound), errors.Is(err, wallet.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, wallet.ErrInsufficientBalance):
		status = http.StatusPaymentRequired
	case errors.Is(err, ErrSessionTerminal), errors.Is(err, ErrServiceInactive):
		status = http.StatusConflict
	case errors.Is(err, smsactivate.ErrNoNumbers), errors.Is(err, smsactivate.ErrProviderBalance):
		status = http.StatusConflict
	case errors.Is(err, smsactivate.ErrUnavailable):
		status = http.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{"success": false, "error": err.Error()})
}

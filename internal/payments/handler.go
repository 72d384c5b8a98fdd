package payments

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/zepno/zepno/internal/wallet"
)

const signatureHeader = "X-Razorpay-Signature"

// Handler exposes the gateway webhook and top-up endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a payments HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Webhook receives signed gateway events.
func (h *Handler) Webhook(c *fiber.Ctx) error {
	result, err := h.service.HandleWebhook(c.UserContext(), c.Body(), c.Get(signatureHeader))
	if err != nil {
		if errors.Is(err, ErrSignatureInvalid) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	status := "ignored"
	switch {
	case result.Credited:
		status = "credited"
	case result.Duplicate:
		status = "duplicate"
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "status": status})
}

type topupRequest struct {
	Amount string `json:"amount"`
}

// TopupQR creates a payment QR to add funds to the wallet.
func (h *Handler) TopupQR(c *fiber.Ctx) error {
	userID := c.Params("userId")
	var req topupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	qr, err := h.service.CreateTopupQR(c.UserContext(), userID, amount)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, wallet.ErrUserNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusBadGateway, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"payment_id": qr.ID,
		"qr_code":    qr.ImageURL,
	})
}

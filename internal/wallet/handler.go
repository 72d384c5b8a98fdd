package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	ledger Ledger
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(ledger Ledger) *Handler {
	return &Handler{ledger: ledger}
}

type transactionResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Purpose   string `json:"purpose"`
	CreatedAt string `json:"created_at"`
}

// Balance returns the wallet balance for a user.
func (h *Handler) Balance(c *fiber.Ctx) error {
	userID := c.Params("userId")
	balance, err := h.ledger.Balance(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user_id":   userID,
		"balance":   balance.String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Transactions returns the user's ledger history, newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	userID := c.Params("userId")
	entries, err := h.ledger.Transactions(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]transactionResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, transactionResponse{
			ID:        entry.ID,
			Type:      entry.Type,
			Amount:    entry.Amount.String(),
			Purpose:   entry.Purpose,
			CreatedAt: entry.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user_id":      userID,
		"transactions": out,
	})
}

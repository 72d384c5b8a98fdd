package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zepno/zepno/internal/payments"
	"github.com/zepno/zepno/internal/wallet"
)

// RegisterWalletRoutes wires wallet balance, history, and top-up endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, p *payments.Handler) {
	r.Get("/wallets/:userId/balance", h.Balance)
	r.Get("/wallets/:userId/transactions", h.Transactions)
	r.Post("/wallets/:userId/topup/qr", p.TopupQR)
}

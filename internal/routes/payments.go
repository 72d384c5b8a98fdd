package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zepno/zepno/internal/payments"
)

// RegisterWebhookRoutes wires payment gateway callbacks.
func RegisterWebhookRoutes(app *fiber.App, h *payments.Handler) {
	app.Post("/webhooks/razorpay", h.Webhook)
}

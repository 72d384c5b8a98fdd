package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zepno/zepno/internal/activation"
)

// RegisterActivationRoutes wires OTP session endpoints.
func RegisterActivationRoutes(r fiber.Router, h *activation.Handler) {
	r.Post("/activations", h.Purchase)
	r.Get("/activations", h.List)
	r.Get("/activations/:id", h.Get)
	r.Post("/activations/:id/refresh", h.Refresh)
	r.Post("/activations/:id/cancel", h.Cancel)
}

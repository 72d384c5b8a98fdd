package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zepno/zepno/internal/user"
)

// RegisterUserRoutes wires user profile endpoints.
func RegisterUserRoutes(r fiber.Router, h *user.Handler) {
	r.Post("/users", h.Create)
	r.Get("/users/:userId", h.Get)
}

package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zepno/zepno/internal/catalog"
)

// RegisterCatalogRoutes wires the service catalog endpoints.
func RegisterCatalogRoutes(r fiber.Router, h *catalog.Handler) {
	r.Get("/services", h.List)
}

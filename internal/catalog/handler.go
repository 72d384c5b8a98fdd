package catalog

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler serves the public service catalog.
type Handler struct {
	catalog *Catalog
}

// NewHandler builds a catalog HTTP handler.
func NewHandler(catalog *Catalog) *Handler {
	return &Handler{catalog: catalog}
}

type serviceResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"is_active"`
	Icon        string `json:"icon"`
}

// List returns every catalog service with current pricing.
func (h *Handler) List(c *fiber.Ctx) error {
	services := h.catalog.Services(c.UserContext())
	out := make([]serviceResponse, 0, len(services))
	for _, svc := range services {
		out = append(out, serviceResponse{
			ID:          svc.ID,
			Name:        svc.Name,
			Price:       svc.Price.String(),
			Description: svc.Description,
			Active:      svc.Active,
			Icon:        string(svc.Icon),
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"services": out})
}

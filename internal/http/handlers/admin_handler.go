package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "sellerhub/internal/log"
	"sellerhub/internal/services"
	"sellerhub/internal/validate"
)

type AdminHandler struct {
	Catalog *services.CatalogService
}

// POST /api/v1/admin/products/:id/status
func (h *AdminHandler) SetProductStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(envelope{Message: "Invalid Product"})
	}
	var req validate.ProductStatus
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := validate.Struct(req); errs != nil {
		return invalid(c, errs)
	}
	p, err := h.Catalog.SetProductStatus(c.UserContext(), id, req.Status, req.ShowInShop)
	if err != nil {
		return failWith(c, "admin.products.status.fail", err, map[int]string{
			fiber.StatusNotFound: "Invalid Product",
			fiber.StatusConflict: "Status change not allowed",
		})
	}
	applog.Audit(c, "admin.products.status", map[string]any{"product_id": id, "status": req.Status, "show_in_shop": req.ShowInShop})
	return reply(c, fiber.StatusOK, "Product status updated", p)
}

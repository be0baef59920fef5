package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "sellerhub/internal/log"
	"sellerhub/internal/services"
	"sellerhub/internal/validate"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

var categoryMessages = map[int]string{
	fiber.StatusNotFound: "Invalid category",
	fiber.StatusConflict: "Category is in use or already exists",
}

// GET /api/v1/categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "category.list.fail", err)
	}
	return reply(c, fiber.StatusOK, "", cats)
}

// GET /api/v1/categories/:id
func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(envelope{Message: "Invalid category"})
	}
	cat, err := h.Catalog.GetCategory(c.UserContext(), id)
	if err != nil {
		return failWith(c, "category.get.fail", err, categoryMessages)
	}
	return reply(c, fiber.StatusOK, "", cat)
}

// POST /api/v1/categories returns the existing category for a known
// (name, description) pair and creates it otherwise.
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req validate.Category
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.Normalize()
	if errs := validate.Struct(req); errs != nil {
		return invalid(c, errs)
	}
	cat, created, err := h.Catalog.FindOrCreateCategory(c.UserContext(), req.Name, req.Description)
	if err != nil {
		return fail(c, "category.create.fail", err)
	}
	if !created {
		return reply(c, fiber.StatusOK, "Category already exists", cat)
	}
	applog.Audit(c, "category.create", map[string]any{"category_id": cat.ID})
	return reply(c, fiber.StatusCreated, "Category created successfully", cat)
}

// PUT /api/v1/categories/:id
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(envelope{Message: "Invalid category"})
	}
	var req validate.Category
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.Normalize()
	if errs := validate.Struct(req); errs != nil {
		return invalid(c, errs)
	}
	cat, err := h.Catalog.UpdateCategory(c.UserContext(), id, req.Name, req.Description)
	if err != nil {
		return failWith(c, "category.update.fail", err, categoryMessages)
	}
	applog.Audit(c, "category.update", map[string]any{"category_id": id})
	return reply(c, fiber.StatusOK, "Category updated successfully", cat)
}

// DELETE /api/v1/categories/:id
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(envelope{Message: "Invalid category"})
	}
	if err := h.Catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return failWith(c, "category.delete.fail", err, categoryMessages)
	}
	applog.Audit(c, "category.delete", map[string]any{"category_id": id})
	return reply(c, fiber.StatusOK, "Category deleted successfully", nil)
}

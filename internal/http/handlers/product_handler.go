package handlers

import (
	"errors"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"sellerhub/internal/domain"
	"sellerhub/internal/log"
	"sellerhub/internal/media"
	"sellerhub/internal/notify"
	"sellerhub/internal/services"
	"sellerhub/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Media   *media.Store
	Notify  *notify.Notifier
}

var productMessages = map[int]string{
	fiber.StatusNotFound:  "Invalid Product",
	fiber.StatusConflict:  "Product in store can't be deleted",
	fiber.StatusForbidden: "Unauthorised request",
}

// imageFiles returns the repeated "images" parts of a multipart body, or nil
// for any other content type.
func imageFiles(c *fiber.Ctx) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, fasthttp.ErrNoMultipartForm) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return form.File["images"], nil
}

// formField reports a form value only when the client sent the key.
func formField(c *fiber.Ctx, key string) *string {
	if form, err := c.MultipartForm(); err == nil {
		if v, ok := form.Value[key]; ok && len(v) > 0 {
			s := strings.TrimSpace(v[0])
			return &s
		}
		return nil
	}
	if c.Request().PostArgs().Has(key) {
		s := strings.TrimSpace(c.FormValue(key))
		return &s
	}
	return nil
}

// GET /api/v1/products?status=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	ps, err := h.Catalog.ListProducts(c.UserContext(), u.ID, strings.TrimSpace(c.Query("status")))
	if err != nil {
		return fail(c, "product.list.fail", err)
	}
	return reply(c, fiber.StatusOK, "", ps)
}

// GET /api/v1/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(fiber.StatusNotFound).JSON(envelope{Message: "Invalid Product"})
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return failWith(c, "product.get.fail", err, productMessages)
	}
	return reply(c, fiber.StatusOK, "", p)
}

// POST /api/v1/products (multipart, images in "images")
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)
	var req validate.Product
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.Normalize()
	if errs := validate.Struct(req); errs != nil {
		return invalid(c, errs)
	}
	files, err := imageFiles(c)
	if err != nil {
		return badBody(c)
	}
	uploads, err := h.Media.SaveAll(c, files)
	if err != nil {
		return fail(c, "product.upload.fail", err)
	}

	in := services.NewProduct{
		Name:        req.Name,
		Price:       req.PriceValue(),
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		Description: req.Description,
		Status:      req.Status,
	}
	if req.CategoryID != "" {
		in.CategoryID = &req.CategoryID
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), u.ID, in, uploads)
	if err != nil {
		h.Media.Remove(uploads)
		return failWith(c, "product.create.fail", err, map[int]string{fiber.StatusBadRequest: "Invalid category or product data"})
	}
	log.Audit(c, "product.create", map[string]any{"product_id": p.ID, "images": len(uploads)})
	h.Notify.ProductCreated(u, p)
	return reply(c, fiber.StatusCreated, "Product created successfully", p)
}

// PUT /api/v1/products/:id (multipart). Uploaded images replace the whole
// set; clear_images=true with no uploads removes them; otherwise images stay.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(envelope{Message: "Invalid Product"})
	}
	req, errs := h.patchRequest(c)
	if errs != nil {
		return invalid(c, errs)
	}
	files, err := imageFiles(c)
	if err != nil {
		return badBody(c)
	}
	if err := media.Check(files); err != nil {
		return fail(c, "product.upload.fail", err)
	}

	change := services.KeepImageSet()
	var uploads []domain.ImageUpload
	switch {
	case len(files) > 0:
		if uploads, err = h.Media.SaveAll(c, files); err != nil {
			return fail(c, "product.upload.fail", err)
		}
		change = services.ReplaceImageSet(uploads)
	case req.ClearImages:
		change = services.ReplaceImageSet(nil)
	}

	// Replaced blobs are removed only after the new set is committed.
	p, dropped, err := h.Catalog.UpdateProduct(c.UserContext(), id, u.ID, toPatch(req), change)
	if err != nil {
		h.Media.Remove(uploads)
		return failWith(c, "product.update.fail", err, productMessages)
	}
	h.Media.Remove(blobs(dropped))
	log.Audit(c, "product.update", map[string]any{"product_id": id, "images_replaced": change.Mode == services.ReplaceImages})
	return reply(c, fiber.StatusOK, "Product updated successfully", p)
}

// DELETE /api/v1/products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(envelope{Message: "Invalid Product"})
	}
	dropped, err := h.Catalog.DeleteProduct(c.UserContext(), id, u.ID)
	if err != nil {
		return failWith(c, "product.delete.fail", err, productMessages)
	}
	h.Media.Remove(blobs(dropped))
	log.Audit(c, "product.delete", map[string]any{"product_id": id})
	return reply(c, fiber.StatusOK, "Product deleted successfully", nil)
}

func (h *ProductHandler) patchRequest(c *fiber.Ctx) (validate.ProductPatch, []validate.FieldError) {
	req := validate.ProductPatch{
		CategoryID:  formField(c, "category_id"),
		Name:        formField(c, "name"),
		Price:       formField(c, "price"),
		Unit:        formField(c, "unit"),
		Description: formField(c, "description"),
	}
	if q := formField(c, "quantity"); q != nil {
		n, err := strconv.Atoi(*q)
		if err != nil {
			return req, []validate.FieldError{{Field: "Quantity", Message: "Value must be a whole number", Type: "int"}}
		}
		req.Quantity = &n
	}
	if v := formField(c, "clear_images"); v != nil {
		req.ClearImages, _ = strconv.ParseBool(*v)
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		if _, ok := validate.ID(*req.CategoryID); !ok {
			return req, []validate.FieldError{{Field: "CategoryID", Message: "Invalid identifier", Type: "rid"}}
		}
	}
	return req, validate.Struct(req)
}

func toPatch(req validate.ProductPatch) services.ProductPatch {
	p := services.ProductPatch{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		Description: req.Description,
	}
	if req.Price != nil {
		d := validate.Product{Price: *req.Price}.PriceValue()
		p.Price = &d
	}
	return p
}

func blobs(imgs []domain.ImageRef) []domain.ImageUpload {
	out := make([]domain.ImageUpload, 0, len(imgs))
	for _, im := range imgs {
		if strings.HasPrefix(im.BlobReference, media.URLPrefix+"/") {
			out = append(out, domain.ImageUpload{OriginalName: im.Name, StoragePath: im.BlobReference})
		}
	}
	return out
}

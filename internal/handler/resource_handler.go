package handler

import (
	"strconv"

	"go-utang-ledger/internal/resource"
	"go-utang-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type ResourceHandler struct {
	service service.ResourceService
}

func NewResourceHandler(s service.ResourceService) *ResourceHandler {
	return &ResourceHandler{service: s}
}

// Register mounts the generic collection routes on router.
func (h *ResourceHandler) Register(router fiber.Router) {
	router.Get("/:resource", h.List)
	router.Post("/:resource", h.Create)
	router.Options("/:resource", h.Options)

	router.Get("/:resource/:id", h.Get)
	router.Patch("/:resource/:id", h.Update)
	router.Put("/:resource/:id", h.Update)
	router.Delete("/:resource/:id", h.Delete)
	router.Options("/:resource/:id", h.Options)
}

func parseKind(c *fiber.Ctx) (resource.Kind, error) {
	k, ok := resource.Parse(c.Params("resource"))
	if !ok {
		return "", service.ErrUnknownResource
	}
	return k, nil
}

// paramID copies the :id segment out of the request buffer, which fasthttp
// reuses once the handler returns.
func paramID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}

// List handles GET /api/:resource
// Query params: _start/_end or page/perPage, _sort/_order, q, per-kind filters
func (h *ResourceHandler) List(c *fiber.Ctx) error {
	k, err := parseKind(c)
	if err != nil {
		return respondError(c, err)
	}

	res, err := h.service.List(c.UserContext(), k, getUserID(c), resource.Values(c.Queries()))
	if err != nil {
		return respondError(c, err)
	}

	c.Set("x-total-count", strconv.FormatInt(res.Total, 10))
	return c.JSON(res.Data)
}

// Get handles GET /api/:resource/:id
func (h *ResourceHandler) Get(c *fiber.Ctx) error {
	k, err := parseKind(c)
	if err != nil {
		return respondError(c, err)
	}

	rec, err := h.service.Get(c.UserContext(), k, paramID(c), getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec)
}

// Create handles POST /api/:resource
func (h *ResourceHandler) Create(c *fiber.Ctx) error {
	k, err := parseKind(c)
	if err != nil {
		return respondError(c, err)
	}

	rec, err := h.service.Create(c.UserContext(), k, getUserID(c), c.Body())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(rec)
}

// Update handles PATCH and PUT /api/:resource/:id; both are partial updates.
func (h *ResourceHandler) Update(c *fiber.Ctx) error {
	k, err := parseKind(c)
	if err != nil {
		return respondError(c, err)
	}

	rec, err := h.service.Update(c.UserContext(), k, paramID(c), getUserID(c), c.Body())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec)
}

// Delete handles DELETE /api/:resource/:id and returns the removed record.
func (h *ResourceHandler) Delete(c *fiber.Ctx) error {
	k, err := parseKind(c)
	if err != nil {
		return respondError(c, err)
	}

	rec, err := h.service.Delete(c.UserContext(), k, paramID(c), getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec)
}

// Options answers preflight requests on every resource route.
func (h *ResourceHandler) Options(c *fiber.Ctx) error {
	return c.SendStatus(204)
}

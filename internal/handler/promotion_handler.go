package handler

import (
	"go-minimart-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PromotionHandler struct {
	service service.PromotionService
}

func NewPromotionHandler(s service.PromotionService) *PromotionHandler {
	return &PromotionHandler{service: s}
}

// POST /api/v1/promotions
func (h *PromotionHandler) Create(c *fiber.Ctx) error {
	var req service.PromotionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	p, err := h.service.Create(c.UserContext(), &req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Promotion created", "data": p})
}

// PUT /api/v1/promotions/:id
func (h *PromotionHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid promotion ID")
	}
	var req service.PromotionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	p, err := h.service.Update(c.UserContext(), id, &req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Promotion updated", "data": p})
}

// DELETE /api/v1/promotions/:id
func (h *PromotionHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid promotion ID")
	}
	if err := h.service.Delete(c.UserContext(), id, actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Promotion deleted"})
}

// GET /api/v1/promotions/:id
func (h *PromotionHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid promotion ID")
	}
	p, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// GET /api/v1/promotions
func (h *PromotionHandler) List(c *fiber.Ctx) error {
	promotions, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(promotions)
}

// GET /api/v1/promotions/applicable?subtotal=
func (h *PromotionHandler) Applicable(c *fiber.Ctx) error {
	subtotal, err := decimal.NewFromString(c.Query("subtotal", "0"))
	if err != nil || subtotal.IsNegative() {
		return badRequest(c, "Invalid subtotal")
	}
	promotions, err := h.service.Applicable(c.UserContext(), subtotal)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(promotions)
}

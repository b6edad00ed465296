package handler

import (
	"strings"

	"go-minimart-pos/internal/cart"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
	"go-minimart-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SalesHandler struct {
	sales service.SalesService
	carts service.CartService
}

func NewSalesHandler(sales service.SalesService, carts service.CartService) *SalesHandler {
	return &SalesHandler{sales: sales, carts: carts}
}

// documentFilter reads from, to, status, limit, offset and the party id
// query parameter named party.
func documentFilter(c *fiber.Ctx, party string) (repository.DocumentFilter, error) {
	var f repository.DocumentFilter
	from, to, err := queryRange(c)
	if err != nil {
		return f, err
	}
	partyID, err := queryID(c, party)
	if err != nil {
		return f, err
	}
	userID, err := queryID(c, "user_id")
	if err != nil {
		return f, err
	}
	f.From, f.To, f.PartyID, f.UserID = from, to, partyID, userID
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			f.Statuses = append(f.Statuses, model.PaymentStatus(strings.ToUpper(strings.TrimSpace(s))))
		}
	}
	f.Limit = queryInt(c, "limit", 0)
	f.Offset = queryInt(c, "offset", 0)
	return f, nil
}

// POST /api/v1/checkout
func (h *SalesHandler) Checkout(c *fiber.Ctx) error {
	var req service.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	invoice, err := h.sales.Checkout(c.UserContext(), &req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Checkout completed", "data": invoice})
}

// POST /api/v1/checkout/preview
func (h *SalesHandler) Preview(c *fiber.Ctx) error {
	var req service.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	preview, err := h.sales.Preview(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(preview)
}

// GET /api/v1/invoices
func (h *SalesHandler) GetInvoices(c *fiber.Ctx) error {
	filter, err := documentFilter(c, "customer_id")
	if err != nil {
		return respondError(c, err)
	}
	invoices, err := h.sales.ListInvoices(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoices)
}

// GET /api/v1/invoices/:id
func (h *SalesHandler) GetInvoice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid invoice ID")
	}
	invoice, err := h.sales.GetInvoice(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoice)
}

// POST /api/v1/carts
func (h *SalesHandler) CreateCart(c *fiber.Ctx) error {
	ct, err := h.carts.Create(c.UserContext(), actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(ct)
}

// GET /api/v1/carts
func (h *SalesHandler) GetCarts(c *fiber.Ctx) error {
	carts, err := h.carts.List(c.UserContext(), actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(carts)
}

// GET /api/v1/carts/:id
func (h *SalesHandler) GetCart(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid cart ID")
	}
	ct, err := h.carts.Get(c.UserContext(), id, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ct)
}

// POST /api/v1/carts/:id/lines
func (h *SalesHandler) AddCartLine(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid cart ID")
	}
	var line cart.Line
	if err := c.BodyParser(&line); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	ct, err := h.carts.AddLine(c.UserContext(), id, line, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ct)
}

// PUT /api/v1/carts/:id/lines/:lineId
func (h *SalesHandler) UpdateCartLine(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid cart ID")
	}
	lineID, err := paramID(c, "lineId")
	if err != nil {
		return badRequest(c, "Invalid line ID")
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	ct, err := h.carts.UpdateLine(c.UserContext(), id, lineID, req.Quantity, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ct)
}

// DELETE /api/v1/carts/:id/lines/:lineId
func (h *SalesHandler) RemoveCartLine(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid cart ID")
	}
	lineID, err := paramID(c, "lineId")
	if err != nil {
		return badRequest(c, "Invalid line ID")
	}
	ct, err := h.carts.RemoveLine(c.UserContext(), id, lineID, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ct)
}

// PUT /api/v1/carts/:id/customer
func (h *SalesHandler) SetCartCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid cart ID")
	}
	var req struct {
		CustomerID *uuid.UUID `json:"customer_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	ct, err := h.carts.SetCustomer(c.UserContext(), id, req.CustomerID, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ct)
}

// PUT /api/v1/carts/:id/promotion
func (h *SalesHandler) SetCartPromotion(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid cart ID")
	}
	var req struct {
		PromotionID *uuid.UUID `json:"promotion_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	ct, err := h.carts.SetPromotion(c.UserContext(), id, req.PromotionID, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ct)
}

// GET /api/v1/carts/:id/preview
func (h *SalesHandler) PreviewCart(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid cart ID")
	}
	preview, err := h.carts.Preview(c.UserContext(), id, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(preview)
}

// POST /api/v1/carts/:id/checkout
func (h *SalesHandler) CheckoutCart(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid cart ID")
	}
	var req struct {
		Paid bool `json:"paid"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid JSON")
		}
	}
	invoice, err := h.carts.Checkout(c.UserContext(), id, req.Paid, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Checkout completed", "data": invoice})
}

// DELETE /api/v1/carts/:id
func (h *SalesHandler) DiscardCart(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid cart ID")
	}
	if err := h.carts.Discard(c.UserContext(), id, actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cart discarded"})
}

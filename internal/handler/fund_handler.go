package handler

import (
	"strings"

	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
	"go-minimart-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type FundHandler struct {
	service service.FundService
}

func NewFundHandler(s service.FundService) *FundHandler {
	return &FundHandler{service: s}
}

// POST /api/v1/funds
func (h *FundHandler) CreateEntry(c *fiber.Ctx) error {
	var req service.FundEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	entry, err := h.service.CreateEntry(c.UserContext(), &req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Fund entry recorded", "data": entry})
}

// GET /api/v1/funds?type=&currency=&system=&reference_type=&from=&to=&limit=
func (h *FundHandler) GetEntries(c *fiber.Ctx) error {
	from, to, err := queryRange(c)
	if err != nil {
		return respondError(c, err)
	}
	filter := repository.FundFilter{
		Type:          model.FundType(strings.ToUpper(c.Query("type"))),
		Currency:      strings.ToUpper(c.Query("currency")),
		ReferenceType: c.Query("reference_type"),
		From:          from,
		To:            to,
		Limit:         queryInt(c, "limit", 0),
	}
	if raw := c.Query("system"); raw != "" {
		system := raw == "true" || raw == "1"
		filter.SystemOnly = &system
	}
	entries, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// GET /api/v1/funds/balance?from=&to=
func (h *FundHandler) GetBalance(c *fiber.Ctx) error {
	from, to, err := queryRange(c)
	if err != nil {
		return respondError(c, err)
	}
	balance, err := h.service.Balance(c.UserContext(), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(balance)
}

// GET /api/v1/exchange-rates
func (h *FundHandler) GetRates(c *fiber.Ctx) error {
	rates, err := h.service.ListRates(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rates)
}

// PUT /api/v1/exchange-rates/:currency
func (h *FundHandler) SetRate(c *fiber.Ctx) error {
	var req struct {
		RateToBase decimal.Decimal `json:"rate_to_base"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	rate, err := h.service.SetRate(c.UserContext(), c.Params("currency"), req.RateToBase, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Exchange rate updated", "data": rate})
}

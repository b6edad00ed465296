package handler

import (
	"fmt"

	"go-minimart-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

func period(c *fiber.Ctx) (service.Period, error) {
	var p service.Period
	from, to, err := queryRange(c)
	if err != nil {
		return p, err
	}
	if from != nil {
		p.From = *from
	}
	if to != nil {
		p.To = *to
	}
	return p, nil
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7)
func (h *ReportHandler) GetStockMovement(c *fiber.Ctx) error {
	days := queryInt(c, "days", 7)
	if days == 0 {
		days = 7
	}
	data, err := h.service.StockMovement(c.UserContext(), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetDashboardStats returns overview statistics
func (h *ReportHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.Dashboard(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// GET /api/v1/reports/financial?from=&to=
func (h *ReportHandler) GetFinancial(c *fiber.Ctx) error {
	p, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	summary, err := h.service.FinancialSummary(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// GET /api/v1/reports/financial/export?from=&to=
func (h *ReportHandler) ExportFinancial(c *fiber.Ctx) error {
	p, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	data, err := h.service.ExportFinancial(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=financial-report-%s.xlsx", c.Query("to", "latest")))
	return c.Send(data)
}

// GET /api/v1/reports/profit?from=&to=
func (h *ReportHandler) GetDailyProfit(c *fiber.Ctx) error {
	p, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	days, err := h.service.DailyProfit(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(days)
}

// GET /api/v1/reports/top-selling?from=&to=&limit=
func (h *ReportHandler) GetTopSelling(c *fiber.Ctx) error {
	p, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	rows, err := h.service.TopSelling(c.UserContext(), p, queryInt(c, "limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rows)
}

// GET /api/v1/reports/sales-by-category?from=&to=
func (h *ReportHandler) GetSalesByCategory(c *fiber.Ctx) error {
	p, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	rows, err := h.service.SalesByCategory(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rows)
}

// GET /api/v1/reports/sales-by-employee?from=&to=
func (h *ReportHandler) GetSalesByEmployee(c *fiber.Ctx) error {
	p, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	rows, err := h.service.SalesByEmployee(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rows)
}

// GET /api/v1/reports/purchases-by-supplier?from=&to=
func (h *ReportHandler) GetPurchasesBySupplier(c *fiber.Ctx) error {
	p, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	rows, err := h.service.PurchasesBySupplier(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rows)
}

// GET /api/v1/debts
func (h *ReportHandler) GetDebts(c *fiber.Ctx) error {
	debts, err := h.service.Debts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(debts)
}

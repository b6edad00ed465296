package handler

import (
	"go-minimart-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PurchasingHandler serves goods receipts, both kinds of returns and debt
// payments.
type PurchasingHandler struct {
	receiving service.ReceivingService
	returns   service.ReturnService
	payments  service.PaymentService
}

func NewPurchasingHandler(receiving service.ReceivingService, returns service.ReturnService, payments service.PaymentService) *PurchasingHandler {
	return &PurchasingHandler{receiving: receiving, returns: returns, payments: payments}
}

// POST /api/v1/receipts
func (h *PurchasingHandler) Receive(c *fiber.Ctx) error {
	var req service.ReceiveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	receipt, err := h.receiving.Receive(c.UserContext(), &req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Goods received", "data": receipt})
}

// GET /api/v1/receipts
func (h *PurchasingHandler) GetReceipts(c *fiber.Ctx) error {
	filter, err := documentFilter(c, "supplier_id")
	if err != nil {
		return respondError(c, err)
	}
	receipts, err := h.receiving.ListReceipts(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(receipts)
}

// GET /api/v1/receipts/:id
func (h *PurchasingHandler) GetReceipt(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid receipt ID")
	}
	receipt, err := h.receiving.GetReceipt(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(receipt)
}

// POST /api/v1/receipts/:id/payments
func (h *PurchasingHandler) PayReceipt(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid receipt ID")
	}
	var req service.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	payment, err := h.payments.PayReceipt(c.UserContext(), id, req.Amount, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Payment recorded", "data": payment})
}

// GET /api/v1/receipts/:id/payments
func (h *PurchasingHandler) GetReceiptPayments(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid receipt ID")
	}
	payments, err := h.payments.History(c.UserContext(), nil, &id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payments)
}

// POST /api/v1/invoices/:id/payments
func (h *PurchasingHandler) PayInvoice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid invoice ID")
	}
	var req service.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	payment, err := h.payments.PayInvoice(c.UserContext(), id, req.Amount, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Payment recorded", "data": payment})
}

// GET /api/v1/invoices/:id/payments
func (h *PurchasingHandler) GetInvoicePayments(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid invoice ID")
	}
	payments, err := h.payments.History(c.UserContext(), &id, nil)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payments)
}

// POST /api/v1/invoices/:id/returns
func (h *PurchasingHandler) ReturnFromInvoice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid invoice ID")
	}
	var req service.CustomerReturnRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	slip, err := h.returns.ReturnFromInvoice(c.UserContext(), id, &req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Return recorded", "data": slip})
}

// GET /api/v1/returns
func (h *PurchasingHandler) GetReturns(c *fiber.Ctx) error {
	filter, err := documentFilter(c, "customer_id")
	if err != nil {
		return respondError(c, err)
	}
	slips, err := h.returns.ListReturnSlips(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(slips)
}

// GET /api/v1/returns/:id
func (h *PurchasingHandler) GetReturn(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid return ID")
	}
	slip, err := h.returns.GetReturnSlip(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(slip)
}

// POST /api/v1/supplier-returns
func (h *PurchasingHandler) ReturnToSupplier(c *fiber.Ctx) error {
	var req service.SupplierReturnRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	slip, err := h.returns.ReturnToSupplier(c.UserContext(), &req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Supplier return recorded", "data": slip})
}

// GET /api/v1/supplier-returns
func (h *PurchasingHandler) GetSupplierReturns(c *fiber.Ctx) error {
	filter, err := documentFilter(c, "supplier_id")
	if err != nil {
		return respondError(c, err)
	}
	slips, err := h.returns.ListSupplierReturns(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(slips)
}

// GET /api/v1/supplier-returns/:id
func (h *PurchasingHandler) GetSupplierReturn(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid supplier return ID")
	}
	slip, err := h.returns.GetSupplierReturn(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(slip)
}

// GET /api/v1/debts/receivables?customer_id=
func (h *PurchasingHandler) GetReceivables(c *fiber.Ctx) error {
	customerID, err := queryID(c, "customer_id")
	if err != nil {
		return respondError(c, err)
	}
	invoices, err := h.payments.Receivables(c.UserContext(), customerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoices)
}

// GET /api/v1/debts/payables?supplier_id=
func (h *PurchasingHandler) GetPayables(c *fiber.Ctx) error {
	supplierID, err := queryID(c, "supplier_id")
	if err != nil {
		return respondError(c, err)
	}
	receipts, err := h.payments.Payables(c.UserContext(), supplierID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(receipts)
}

package handler

import (
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
	"go-minimart-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// POST /api/v1/products
func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	product, err := h.service.CreateProduct(c.UserContext(), &req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

// PUT /api/v1/products/:id
func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	updated, err := h.service.UpdateProduct(c.UserContext(), id, &req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

// DELETE /api/v1/products/:id
func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	if err := h.service.DeleteProduct(c.UserContext(), id, actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// GET /api/v1/products?search=&category_id=&supplier_id=
func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	categoryID, err := queryID(c, "category_id")
	if err != nil {
		return respondError(c, err)
	}
	supplierID, err := queryID(c, "supplier_id")
	if err != nil {
		return respondError(c, err)
	}
	products, err := h.service.ListProducts(c.UserContext(), repository.ProductFilter{
		Search:     c.Query("search"),
		CategoryID: categoryID,
		SupplierID: supplierID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// GET /api/v1/products/:id
func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// GET /api/v1/products/:id/units
func (h *InventoryHandler) GetUnits(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	units, err := h.service.AvailableUnits(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(units)
}

// GET /api/v1/products/:id/movements
func (h *InventoryHandler) GetProductMovements(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	return h.movements(c, repository.MovementFilter{ProductID: &id})
}

// GET /api/v1/products/:id/reconcile
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	result, err := h.service.Reconcile(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// POST /api/v1/stock/adjustments
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	var req service.AdjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	entry, err := h.service.AdjustStock(c.UserContext(), &req, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Stock adjusted", "data": entry})
}

// GET /api/v1/stock/low
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	products, err := h.service.LowStock(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// GET /api/v1/stock/movements?product_id=&type=&from=&to=&limit=
func (h *InventoryHandler) GetMovements(c *fiber.Ctx) error {
	productID, err := queryID(c, "product_id")
	if err != nil {
		return respondError(c, err)
	}
	return h.movements(c, repository.MovementFilter{ProductID: productID})
}

func (h *InventoryHandler) movements(c *fiber.Ctx, filter repository.MovementFilter) error {
	from, to, err := queryRange(c)
	if err != nil {
		return respondError(c, err)
	}
	filter.Type = model.StockMovementType(c.Query("type"))
	filter.From = from
	filter.To = to
	filter.Limit = queryInt(c, "limit", 0)

	entries, err := h.service.Movements(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

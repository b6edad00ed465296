package handler

import (
	"go-minimart-pos/internal/middleware"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler the API mounts
type Handlers struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Inventory  *InventoryHandler
	Sales      *SalesHandler
	Purchasing *PurchasingHandler
	Funds      *FundHandler
	Promotions *PromotionHandler
	Categories *CatalogHandler[model.Category]
	Suppliers  *CatalogHandler[model.Supplier]
	Customers  *CatalogHandler[model.Customer]
	Attributes *CatalogHandler[model.ProductAttribute]
	Reports    *ReportHandler
	Import     *ImportHandler
}

// RegisterRoutes mounts the REST API under /api/v1
func RegisterRoutes(app *fiber.App, h *Handlers, userRepo repository.UserRepository) {
	api := app.Group("/api/v1")
	requireAuth := middleware.RequireAuth(userRepo)
	can := middleware.RequirePrivilege

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/reset-password", h.Auth.ResetPassword)
	auth.Post("/validate-token", h.Auth.ValidateToken)
	auth.Post("/heartbeat", requireAuth, h.Auth.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	// Dashboard
	protected.Get("/dashboard/stats", h.Reports.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", h.Reports.GetStockMovement)

	// Products and stock
	protected.Get("/products", can(model.PrivProductView), h.Inventory.GetProducts)
	protected.Get("/products/:id", can(model.PrivProductView), h.Inventory.GetProduct)
	protected.Get("/products/:id/units", can(model.PrivProductView), h.Inventory.GetUnits)
	protected.Get("/products/:id/movements", can(model.PrivProductView), h.Inventory.GetProductMovements)
	protected.Get("/products/:id/reconcile", can(model.PrivStockAdjust), h.Inventory.Reconcile)
	protected.Post("/products", can(model.PrivProductCreate), h.Inventory.CreateProduct)
	protected.Put("/products/:id", can(model.PrivProductUpdate), h.Inventory.UpdateProduct)
	protected.Delete("/products/:id", can(model.PrivProductDelete), h.Inventory.DeleteProduct)
	protected.Post("/stock/adjustments", can(model.PrivStockAdjust), h.Inventory.AdjustStock)
	protected.Get("/stock/low", can(model.PrivProductView), h.Inventory.GetLowStock)
	protected.Get("/stock/movements", can(model.PrivProductView), h.Inventory.GetMovements)

	// Sales
	protected.Post("/checkout", can(model.PrivSaleCreate), h.Sales.Checkout)
	protected.Post("/checkout/preview", can(model.PrivSaleCreate), h.Sales.Preview)
	carts := protected.Group("/carts", can(model.PrivSaleCreate))
	carts.Post("/", h.Sales.CreateCart)
	carts.Get("/", h.Sales.GetCarts)
	carts.Get("/:id", h.Sales.GetCart)
	carts.Delete("/:id", h.Sales.DiscardCart)
	carts.Post("/:id/lines", h.Sales.AddCartLine)
	carts.Put("/:id/lines/:lineId", h.Sales.UpdateCartLine)
	carts.Delete("/:id/lines/:lineId", h.Sales.RemoveCartLine)
	carts.Put("/:id/customer", h.Sales.SetCartCustomer)
	carts.Put("/:id/promotion", h.Sales.SetCartPromotion)
	carts.Get("/:id/preview", h.Sales.PreviewCart)
	carts.Post("/:id/checkout", h.Sales.CheckoutCart)

	protected.Get("/invoices", can(model.PrivSaleView), h.Sales.GetInvoices)
	protected.Get("/invoices/:id", can(model.PrivSaleView), h.Sales.GetInvoice)
	protected.Post("/invoices/:id/returns", can(model.PrivReturnCreate), h.Purchasing.ReturnFromInvoice)
	protected.Post("/invoices/:id/payments", can(model.PrivPaymentCreate), h.Purchasing.PayInvoice)
	protected.Get("/invoices/:id/payments", can(model.PrivSaleView), h.Purchasing.GetInvoicePayments)
	protected.Get("/returns", can(model.PrivSaleView), h.Purchasing.GetReturns)
	protected.Get("/returns/:id", can(model.PrivSaleView), h.Purchasing.GetReturn)

	// Purchasing
	protected.Post("/receipts", can(model.PrivReceiptCreate), h.Purchasing.Receive)
	protected.Get("/receipts", can(model.PrivReceiptView), h.Purchasing.GetReceipts)
	protected.Get("/receipts/:id", can(model.PrivReceiptView), h.Purchasing.GetReceipt)
	protected.Post("/receipts/:id/payments", can(model.PrivPaymentCreate), h.Purchasing.PayReceipt)
	protected.Get("/receipts/:id/payments", can(model.PrivReceiptView), h.Purchasing.GetReceiptPayments)
	protected.Post("/supplier-returns", can(model.PrivReceiptCreate), h.Purchasing.ReturnToSupplier)
	protected.Get("/supplier-returns", can(model.PrivReceiptView), h.Purchasing.GetSupplierReturns)
	protected.Get("/supplier-returns/:id", can(model.PrivReceiptView), h.Purchasing.GetSupplierReturn)

	// Debts
	protected.Get("/debts", can(model.PrivReportView), h.Reports.GetDebts)
	protected.Get("/debts/receivables", middleware.RequireAnyPrivilege(model.PrivSaleView, model.PrivPaymentCreate), h.Purchasing.GetReceivables)
	protected.Get("/debts/payables", middleware.RequireAnyPrivilege(model.PrivReceiptView, model.PrivPaymentCreate), h.Purchasing.GetPayables)

	// Funds
	protected.Get("/funds", can(model.PrivFundView), h.Funds.GetEntries)
	protected.Get("/funds/balance", can(model.PrivFundView), h.Funds.GetBalance)
	protected.Post("/funds", can(model.PrivFundCreate), h.Funds.CreateEntry)
	protected.Get("/exchange-rates", h.Funds.GetRates)
	protected.Put("/exchange-rates/:currency", can(model.PrivExchangeRateSet), h.Funds.SetRate)

	// Promotions
	protected.Get("/promotions", h.Promotions.List)
	protected.Get("/promotions/applicable", h.Promotions.Applicable)
	protected.Get("/promotions/:id", h.Promotions.Get)
	protected.Post("/promotions", can(model.PrivPromotionManage), h.Promotions.Create)
	protected.Put("/promotions/:id", can(model.PrivPromotionManage), h.Promotions.Update)
	protected.Delete("/promotions/:id", can(model.PrivPromotionManage), h.Promotions.Delete)

	// Catalog
	manageCatalog := can(model.PrivCatalogManage)
	h.Categories.Register(protected.Group("/categories"), manageCatalog)
	h.Suppliers.Register(protected.Group("/suppliers"), manageCatalog)
	h.Customers.Register(protected.Group("/customers"), middleware.RequireAnyPrivilege(model.PrivCatalogManage, model.PrivSaleCreate))
	h.Attributes.Register(protected.Group("/attributes"), manageCatalog)

	// Reports
	reports := protected.Group("/reports", can(model.PrivReportView))
	reports.Get("/financial", h.Reports.GetFinancial)
	reports.Get("/financial/export", h.Reports.ExportFinancial)
	reports.Get("/profit", h.Reports.GetDailyProfit)
	reports.Get("/top-selling", h.Reports.GetTopSelling)
	reports.Get("/sales-by-category", h.Reports.GetSalesByCategory)
	reports.Get("/sales-by-employee", h.Reports.GetSalesByEmployee)
	reports.Get("/purchases-by-supplier", h.Reports.GetPurchasesBySupplier)

	// Import
	protected.Post("/import", can(model.PrivImportRun), h.Import.Import)

	// Users
	protected.Get("/users", can(model.PrivUserView), h.Users.GetUsers)
	protected.Get("/users/:id", can(model.PrivUserView), h.Users.GetUser)
	protected.Post("/users", can(model.PrivUserCreate), h.Users.CreateUser)
	protected.Put("/users/:id", can(model.PrivUserUpdate), h.Users.UpdateUser)
	protected.Delete("/users/:id", can(model.PrivUserDelete), h.Users.DeleteUser)
	protected.Put("/users/:id/privileges", can(model.PrivUserUpdatePrivilege), h.Users.UpdateUserPrivileges)
	protected.Get("/roles", h.Users.GetRoles)
	protected.Get("/privileges", h.Users.GetPrivileges)
}

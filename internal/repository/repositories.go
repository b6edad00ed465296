package repository

import (
	"go-minimart-pos/internal/model"

	"gorm.io/gorm"
)

// Repositories bundles every repository over one connection pool
type Repositories struct {
	Products   ProductRepository
	Movements  StockTransactionRepository
	Invoices   InvoiceRepository
	Receipts   GoodsReceiptRepository
	Returns    ReturnRepository
	Funds      FundRepository
	Promotions PromotionRepository
	Categories CatalogRepository[model.Category]
	Suppliers  CatalogRepository[model.Supplier]
	Customers  CatalogRepository[model.Customer]
	Attributes CatalogRepository[model.ProductAttribute]
	Reports    ReportRepository
	Users      UserRepository
	Roles      RoleRepository
	Privileges PrivilegeRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Products:   NewProductRepo(db),
		Movements:  NewStockTransactionRepo(db),
		Invoices:   NewInvoiceRepo(db),
		Receipts:   NewGoodsReceiptRepo(db),
		Returns:    NewReturnRepo(db),
		Funds:      NewFundRepo(db),
		Promotions: NewPromotionRepo(db),
		Categories: NewCategoryRepo(db),
		Suppliers:  NewSupplierRepo(db),
		Customers:  NewCustomerRepo(db),
		Attributes: NewAttributeRepo(db),
		Reports:    NewReportRepo(db),
		Users:      NewUserRepo(db),
		Roles:      NewRoleRepo(db),
		Privileges: NewPrivilegeRepo(db),
	}
}

package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivUserView            = "user:view"
	PrivUserCreate          = "user:create"
	PrivUserUpdate          = "user:update"
	PrivUserDelete          = "user:delete"
	PrivUserUpdatePrivilege = "user:update_privilege"

	PrivProductView   = "product:view"
	PrivProductCreate = "product:create"
	PrivProductUpdate = "product:update"
	PrivProductDelete = "product:delete"
	PrivStockAdjust   = "stock:adjust"

	PrivSaleCreate    = "sale:create"
	PrivSaleView      = "sale:view"
	PrivReceiptCreate = "receipt:create"
	PrivReceiptView   = "receipt:view"
	PrivReturnCreate  = "return:create"
	PrivPaymentCreate = "payment:create"

	PrivFundView        = "fund:view"
	PrivFundCreate      = "fund:create"
	PrivExchangeRateSet = "fund:set_rate"

	PrivPromotionManage = "promotion:manage"
	PrivCatalogManage   = "catalog:manage"
	PrivReportView      = "report:view"
	PrivImportRun       = "import:run"
)

var DefaultPrivileges = []Privilege{
	{Code: PrivUserView, Name: "View User"},
	{Code: PrivUserCreate, Name: "Create User"},
	{Code: PrivUserUpdate, Name: "Update User"},
	{Code: PrivUserDelete, Name: "Delete User"},
	{Code: PrivUserUpdatePrivilege, Name: "Update User Privileges"},
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	{Code: PrivStockAdjust, Name: "Adjust Stock"},
	{Code: PrivSaleCreate, Name: "Checkout"},
	{Code: PrivSaleView, Name: "View Invoices"},
	{Code: PrivReceiptCreate, Name: "Receive Goods"},
	{Code: PrivReceiptView, Name: "View Goods Receipts"},
	{Code: PrivReturnCreate, Name: "Create Returns"},
	{Code: PrivPaymentCreate, Name: "Record Debt Payments"},
	{Code: PrivFundView, Name: "View Fund Ledger"},
	{Code: PrivFundCreate, Name: "Record Manual Fund Entry"},
	{Code: PrivExchangeRateSet, Name: "Set Exchange Rates"},
	{Code: PrivPromotionManage, Name: "Manage Promotions"},
	{Code: PrivCatalogManage, Name: "Manage Categories, Suppliers and Customers"},
	{Code: PrivReportView, Name: "View Reports"},
	{Code: PrivImportRun, Name: "Import Workbook"},
}

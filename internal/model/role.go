package model

// Role represents user roles in the system
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleAdmin    = "ADMIN"
	RoleManager  = "MANAGER"
	RoleEmployee = "EMPLOYEE"
)

var DefaultRoles = []Role{
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Full system access with all privileges",
	},
	{
		Code:        RoleManager,
		Name:        "Store Manager",
		Description: "Purchasing, pricing, stock and reporting; no user management",
	},
	{
		Code:        RoleEmployee,
		Name:        "Cashier",
		Description: "Sales counter: checkout, customer returns and payments",
	},
}

// RolePrivileges lists the privilege codes granted to each non-admin role;
// ADMIN always receives every privilege.
var RolePrivileges = map[string][]string{
	RoleManager: {
		PrivProductView, PrivProductCreate, PrivProductUpdate, PrivProductDelete,
		PrivStockAdjust, PrivSaleCreate, PrivSaleView, PrivReceiptCreate, PrivReceiptView,
		PrivReturnCreate, PrivPaymentCreate, PrivFundView, PrivFundCreate,
		PrivPromotionManage, PrivCatalogManage, PrivReportView, PrivImportRun,
	},
	RoleEmployee: {
		PrivProductView, PrivSaleCreate, PrivSaleView, PrivReturnCreate, PrivPaymentCreate,
	},
}

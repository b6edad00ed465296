package model

import "github.com/google/uuid"

type Category struct {
	BaseModel
	Name string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
}

type Supplier struct {
	BaseModel
	Name    string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
	Phone   string `gorm:"type:varchar(30)" json:"phone"`
	Email   string `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`
	Address string `gorm:"type:text" json:"address"`
}

type Customer struct {
	BaseModel
	Name    string `gorm:"type:varchar(255);index;not null" json:"name" validate:"required"`
	Phone   string `gorm:"type:varchar(30);index" json:"phone"`
	Address string `gorm:"type:text" json:"address"`
}

// ProductAttribute is a named property such as "Color" or "Volume"
type ProductAttribute struct {
	BaseModel
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name" validate:"required"`
}

type ProductAttributeValue struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	ProductID   uuid.UUID         `gorm:"type:uuid;index;not null" json:"product_id"`
	AttributeID uuid.UUID         `gorm:"type:uuid;index;not null" json:"attribute_id"`
	Attribute   *ProductAttribute `json:"attribute,omitempty"`
	Value       string            `gorm:"type:varchar(255);not null" json:"value"`
}

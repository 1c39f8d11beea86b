package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

// Order is a customer's print request. Status, TotalValue and PlacedAt are
// store-defaulted and left out of inserts while zero.
type Order struct {
	ID         int64             `json:"id,omitempty" gorm:"column:id;primaryKey;autoIncrement"`
	CustomerID int64             `json:"customer_id" gorm:"column:customer_id;not null;index"`
	Status     enums.OrderStatus `json:"status,omitempty" gorm:"column:status;type:text;not null;default:'pending'"`
	TotalValue decimal.Decimal   `json:"total_value,omitzero" gorm:"column:total_value;type:numeric(12,2);not null;default:0"`
	PlacedAt   time.Time         `json:"placed_at,omitzero" gorm:"column:placed_at;not null;default:CURRENT_TIMESTAMP"`
	Notes      *string           `json:"notes,omitempty" gorm:"column:notes"`

	Items    []OrderItem      `json:"order_items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Customer *CustomerProfile `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

// OrderItem is one requested part within an order.
type OrderItem struct {
	ID         int64  `json:"id,omitempty" gorm:"column:id;primaryKey;autoIncrement"`
	OrderID    int64  `json:"order_id" gorm:"column:order_id;not null;index"`
	PartName   string `json:"part_name" gorm:"column:part_name;not null"`
	MaterialID int64  `json:"material_id" gorm:"column:material_id;not null"`
	Quantity   int    `json:"quantity" gorm:"column:quantity;not null"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID;constraint:OnDelete:RESTRICT"`
}

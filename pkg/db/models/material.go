package models

import "github.com/shopspring/decimal"

// Material is a printable filament offered in the catalog.
type Material struct {
	ID           int64           `json:"id,omitempty" gorm:"column:id;primaryKey;autoIncrement"`
	Name         string          `json:"name" gorm:"column:name;not null"`
	Type         string          `json:"type" gorm:"column:type;not null"`
	Color        string          `json:"color" gorm:"column:color;not null"`
	PricePerGram decimal.Decimal `json:"price_per_gram" gorm:"column:price_per_gram;type:numeric(10,4);not null"`
	StockGrams   int             `json:"stock_grams" gorm:"column:stock_grams;not null;default:0"`
}

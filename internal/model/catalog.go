package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer клиент в каталоге владельца.
type Customer struct {
	ID      int64  `gorm:"primaryKey;autoIncrement"`
	OwnerID int64  `gorm:"not null;uniqueIndex:idx_customer_owner_name"`
	Name    string `gorm:"not null;uniqueIndex:idx_customer_owner_name"`
	Contact string

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Material материал с таблицей цен по базисам. Пара (владелец, имя) уникальна.
type Material struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	OwnerID      int64  `gorm:"not null;uniqueIndex:idx_material_owner_name"`
	Name         string `gorm:"not null;uniqueIndex:idx_material_owner_name"`
	DefaultBasis Basis  `gorm:"not null;default:mass-small"`

	PriceMassSmall decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	PriceMassLarge decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	PriceVolume    decimal.Decimal `gorm:"type:decimal(20,4);not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// PriceTable цены за единицу по базисам.
type PriceTable map[Basis]decimal.Decimal

// Prices возвращает таблицу цен материала.
func (m *Material) Prices() PriceTable {
	return PriceTable{
		BasisMassSmall: m.PriceMassSmall,
		BasisMassLarge: m.PriceMassLarge,
		BasisVolume:    m.PriceVolume,
	}
}

// SetPrices переносит таблицу в поля; отсутствующие базисы обнуляются.
func (m *Material) SetPrices(p PriceTable) {
	m.PriceMassSmall = p[BasisMassSmall]
	m.PriceMassLarge = p[BasisMassLarge]
	m.PriceVolume = p[BasisVolume]
}

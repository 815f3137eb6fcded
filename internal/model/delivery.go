package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryRecord запись журнала о выданной накладной (Lieferschein). После создания не меняется.
type DeliveryRecord struct {
	ID           string    `gorm:"primaryKey;size:36"`
	CreatedAt    time.Time `gorm:"not null;index"`
	OwnerID      int64     `gorm:"not null;index"`
	CreatorEmail string    `gorm:"not null"`

	CustomerName    string `gorm:"not null"`
	CustomerContact string
	MaterialName    string `gorm:"not null"`
	Basis           Basis  `gorm:"not null"`

	// Исходные замеры: брутто/тара в кг для массовых базисов, объём в м³ для объёмного.
	Gross  decimal.Decimal `gorm:"type:decimal(20,3)"`
	Tare   decimal.Decimal `gorm:"type:decimal(20,3)"`
	Volume decimal.Decimal `gorm:"type:decimal(20,3)"`

	NetQuantity decimal.Decimal `gorm:"type:decimal(20,3);not null"`
	Unit        string          `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(20,2);not null"`

	SignatureCustomerRef string `gorm:"size:64"`
	SignatureSupplierRef string `gorm:"size:64"`
	ArtifactRef          string `gorm:"size:64;index"`
}

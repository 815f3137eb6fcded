package handlers

import (
	"BiomassLedger/internal/model"
	"BiomassLedger/internal/pricing"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IdentityDTO учётная запись без хеша пароля.
type IdentityDTO struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Status     string `json:"status"`
	Role       string `json:"role"`
	CreatedAt  string `json:"created_at,omitempty"`
	ApprovedAt string `json:"approved_at,omitempty"`
}

func toIdentityDTO(i *model.Identity) IdentityDTO {
	dto := IdentityDTO{
		ID:        i.ID,
		Email:     i.Email,
		Status:    string(i.Status),
		Role:      string(i.Role),
		CreatedAt: formatTime(i.CreatedAt),
	}
	if i.ApprovedAt != nil {
		dto.ApprovedAt = formatTime(*i.ApprovedAt)
	}
	return dto
}

type CustomerDTO struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// MaterialDTO цены строками, чтобы не терять точность.
type MaterialDTO struct {
	Name         string            `json:"name"`
	DefaultBasis string            `json:"default_basis"`
	Prices       map[string]string `json:"prices"`
}

func toMaterialDTO(m *model.Material) MaterialDTO {
	prices := make(map[string]string, len(model.Bases))
	for b, p := range m.Prices() {
		prices[string(b)] = p.String()
	}
	return MaterialDTO{Name: m.Name, DefaultBasis: string(m.DefaultBasis), Prices: prices}
}

// QuoteDTO результат расчёта в виде, пригодном для отображения.
type QuoteDTO struct {
	Material    string `json:"material"`
	Basis       string `json:"basis"`
	NetQuantity string `json:"net_quantity"`
	Unit        string `json:"unit"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
}

func toQuoteDTO(material string, res pricing.Result) QuoteDTO {
	return QuoteDTO{
		Material:    material,
		Basis:       string(res.Basis),
		NetQuantity: res.Net.StringFixed(pricing.QuantityPlaces),
		Unit:        res.Unit,
		UnitPrice:   res.UnitPrice.String(),
		Total:       pricing.FormatTotal(res.Total),
	}
}

type RecordDTO struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"created_at"`
	OwnerID      int64  `json:"owner_id"`
	CreatorEmail string `json:"creator_email"`
	Customer     string `json:"customer"`
	Material     string `json:"material"`
	Basis        string `json:"basis"`
	NetQuantity  string `json:"net_quantity"`
	Unit         string `json:"unit"`
	UnitPrice    string `json:"unit_price"`
	Total        string `json:"total"`
	HasDocument  bool   `json:"has_document"`
}

func toRecordDTO(r *model.DeliveryRecord) RecordDTO {
	return RecordDTO{
		ID:           r.ID,
		CreatedAt:    formatTime(r.CreatedAt),
		OwnerID:      r.OwnerID,
		CreatorEmail: r.CreatorEmail,
		Customer:     r.CustomerName,
		Material:     r.MaterialName,
		Basis:        string(r.Basis),
		NetQuantity:  r.NetQuantity.StringFixed(pricing.QuantityPlaces),
		Unit:         r.Unit,
		UnitPrice:    r.UnitPrice.String(),
		Total:        pricing.FormatTotal(r.Total),
		HasDocument:  r.ArtifactRef != "",
	}
}

// parseDecimal пустая строка: ноль; десятичная запятая допускается.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

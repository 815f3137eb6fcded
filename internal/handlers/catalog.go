package handlers

import (
	"BiomassLedger/internal/model"
	"BiomassLedger/internal/service"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogHandler клиенты и материалы раздела вызывающего.
type CatalogHandler struct {
	Catalog *service.CatalogService
	Logger  *zap.SugaredLogger
	auth    *authenticator
}

func NewCatalogHandler(catalog *service.CatalogService, auth *authenticator, logger *zap.SugaredLogger) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog, Logger: logger, auth: auth}
}

type customerRequest struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"contact"`
}

// materialRequest ключи prices: базисы ("mass-small", "pro t", ...), значения: строка или число.
type materialRequest struct {
	Name         string                     `json:"name" validate:"required"`
	DefaultBasis string                     `json:"default_basis"`
	Prices       map[string]decimal.Decimal `json:"prices"`
}

func (h *CatalogHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.auth.caller(w, r)
	if !ok {
		return
	}
	list, err := h.Catalog.ListCustomers(r.Context(), caller)
	if err != nil {
		writeServiceError(w, h.Logger, "ListCustomers", err)
		return
	}
	out := make([]CustomerDTO, 0, len(list))
	for _, c := range list {
		out = append(out, CustomerDTO{Name: c.Name, Contact: c.Contact})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) AddCustomer(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.auth.caller(w, r)
	if !ok {
		return
	}
	var req customerRequest
	if !decodeJSON(w, r, h.Logger, "AddCustomer", &req) {
		return
	}
	c, err := h.Catalog.AddCustomer(r.Context(), caller, req.Name, req.Contact)
	if err != nil {
		writeServiceError(w, h.Logger, "AddCustomer", err)
		return
	}
	writeJSON(w, http.StatusCreated, CustomerDTO{Name: c.Name, Contact: c.Contact})
}

func (h *CatalogHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.auth.caller(w, r)
	if !ok {
		return
	}
	name, ok := pathParam(w, r, "name")
	if !ok {
		return
	}
	if err := h.Catalog.DeleteCustomer(r.Context(), caller, name); err != nil {
		writeServiceError(w, h.Logger, "DeleteCustomer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.auth.caller(w, r)
	if !ok {
		return
	}
	list, err := h.Catalog.ListMaterials(r.Context(), caller)
	if err != nil {
		writeServiceError(w, h.Logger, "ListMaterials", err)
		return
	}
	out := make([]MaterialDTO, 0, len(list))
	for i := range list {
		out = append(out, toMaterialDTO(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) UpsertMaterial(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.auth.caller(w, r)
	if !ok {
		return
	}
	var req materialRequest
	if !decodeJSON(w, r, h.Logger, "UpsertMaterial", &req) {
		return
	}

	in := service.MaterialInput{Name: req.Name, Prices: make(model.PriceTable, len(req.Prices))}
	if req.DefaultBasis != "" {
		b, err := model.ParseBasis(req.DefaultBasis)
		if err != nil {
			http.Error(w, "default_basis: "+err.Error(), http.StatusBadRequest)
			return
		}
		in.DefaultBasis = b
	}
	for key, price := range req.Prices {
		b, err := model.ParseBasis(key)
		if err != nil {
			http.Error(w, "prices: "+err.Error(), http.StatusBadRequest)
			return
		}
		in.Prices[b] = price
	}

	m, err := h.Catalog.UpsertMaterial(r.Context(), caller, in)
	if err != nil {
		writeServiceError(w, h.Logger, "UpsertMaterial", err)
		return
	}
	writeJSON(w, http.StatusOK, toMaterialDTO(m))
}

func (h *CatalogHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.auth.caller(w, r)
	if !ok {
		return
	}
	name, ok := pathParam(w, r, "name")
	if !ok {
		return
	}
	if err := h.Catalog.DeleteMaterial(r.Context(), caller, name); err != nil {
		writeServiceError(w, h.Logger, "DeleteMaterial", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

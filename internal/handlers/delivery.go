package handlers

import (
	"BiomassLedger/internal/config"
	"BiomassLedger/internal/document"
	"BiomassLedger/internal/pricing"
	"BiomassLedger/internal/service"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DeliveryHandler расчёт, оформление накладных и журнал.
type DeliveryHandler struct {
	Delivery *service.DeliveryService
	Ledger   *service.LedgerService
	Logger   *zap.SugaredLogger
	Config   *config.Config
	auth     *authenticator
}

func NewDeliveryHandler(
	delivery *service.DeliveryService,
	ledger *service.LedgerService,
	auth *authenticator,
	logger *zap.SugaredLogger,
	cfg *config.Config,
) *DeliveryHandler {
	return &DeliveryHandler{Delivery: delivery, Ledger: ledger, Logger: logger, Config: cfg, auth: auth}
}

type quoteRequest struct {
	Material string          `json:"material" validate:"required"`
	Basis    string          `json:"basis"`
	Gross    decimal.Decimal `json:"gross"`
	Tare     decimal.Decimal `json:"tare"`
	Volume   decimal.Decimal `json:"volume"`
}

// Quote предварительный расчёт без записи в журнал.
func (h *DeliveryHandler) Quote(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.auth.caller(w, r)
	if !ok {
		return
	}
	var req quoteRequest
	if !decodeJSON(w, r, h.Logger, "Quote", &req) {
		return
	}

	res, material, err := h.Delivery.Quote(r.Context(), caller, service.QuoteRequest{
		MaterialName: req.Material,
		Basis:        req.Basis,
		Measurement:  pricing.Measurement{Gross: req.Gross, Tare: req.Tare, Volume: req.Volume},
	})
	if err != nil {
		writeServiceError(w, h.Logger, "Quote", err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(material.Name, res))
}

// Issue оформление накладной из multipart/form-data: поля customer, material, basis,
// gross, tare, volume, disclaimer и файлы signature_customer, signature_supplier.
func (h *DeliveryHandler) Issue(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.auth.caller(w, r)
	if !ok {
		return
	}

	// Лимит общего тела запроса: две подписи плюс поля
	maxSig := int64(h.Config.SignatureMaxBytes())
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxSig+1<<20)
	if err := r.ParseMultipartForm(2*maxSig + 1<<20); err != nil {
		h.Logger.Warnw("Issue: invalid multipart form", "error", err)
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	measurement, err := measurementFromForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := service.IssueRequest{
		QuoteRequest: service.QuoteRequest{
			MaterialName: strings.TrimSpace(r.FormValue("material")),
			Basis:        r.FormValue("basis"),
			Measurement:  measurement,
		},
		CustomerName:       strings.TrimSpace(r.FormValue("customer")),
		DisclaimerAccepted: formBool(r.FormValue("disclaimer")),
	}
	for field, dst := range map[string]*[]byte{
		"signature_customer": &req.SignatureCustomer,
		"signature_supplier": &req.SignatureSupplier,
	} {
		data, err := readFormFile(r, field, maxSig)
		if err != nil {
			h.Logger.Warnw("Issue: failed to read signature", "field", field, "error", err)
			http.Error(w, field+": "+err.Error(), http.StatusBadRequest)
			return
		}
		*dst = data
	}

	rec, err := h.Delivery.Issue(r.Context(), caller, req)
	if err != nil {
		writeServiceError(w, h.Logger, "Issue", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(rec))
}

// List журнал: свои записи; администратор может запросить ?all=true или ?owner=<id>.
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.auth.caller(w, r)
	if !ok {
		return
	}

	f := service.OwnFilter(caller)
	q := r.URL.Query()
	if formBool(q.Get("all")) {
		f = service.Filter{All: true}
	} else if owner := q.Get("owner"); owner != "" {
		id, err := strconv.ParseInt(owner, 10, 64)
		if err != nil {
			http.Error(w, "invalid owner", http.StatusBadRequest)
			return
		}
		f = service.Filter{OwnerID: id}
	}

	list, err := h.Ledger.Query(r.Context(), caller, f)
	if err != nil {
		writeServiceError(w, h.Logger, "ListDeliveries", err)
		return
	}
	out := make([]RecordDTO, 0, len(list))
	for i := range list {
		out = append(out, toRecordDTO(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.auth.caller(w, r)
	if !ok {
		return
	}
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	rec, err := h.Ledger.Get(r.Context(), caller, id)
	if err != nil {
		writeServiceError(w, h.Logger, "GetDelivery", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// Document отдаёт сохранённый PDF без изменений.
func (h *DeliveryHandler) Document(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.auth.caller(w, r)
	if !ok {
		return
	}
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	rec, doc, err := h.Ledger.Artifact(r.Context(), caller, id)
	if err != nil {
		writeServiceError(w, h.Logger, "Document", err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", document.FileName(rec)))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Content)
}

func measurementFromForm(r *http.Request) (pricing.Measurement, error) {
	var m pricing.Measurement
	for field, dst := range map[string]*decimal.Decimal{
		"gross":  &m.Gross,
		"tare":   &m.Tare,
		"volume": &m.Volume,
	} {
		v, err := parseDecimal(r.FormValue(field))
		if err != nil {
			return m, fmt.Errorf("invalid %s", field)
		}
		*dst = v
	}
	return m, nil
}

// readFormFile содержимое файла формы; отсутствующий файл: nil без ошибки.
func readFormFile(r *http.Request, field string, limit int64) ([]byte, error) {
	f, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	// на байт больше лимита, чтобы размер проверил сервис
	return io.ReadAll(io.LimitReader(f, limit+1))
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

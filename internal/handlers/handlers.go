package handlers

import (
	"BiomassLedger/internal/config"
	"BiomassLedger/internal/middleware"
	"BiomassLedger/internal/model"
	"BiomassLedger/internal/service"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	approval *service.ApprovalService,
	catalog *service.CatalogService,
	ledger *service.LedgerService,
	delivery *service.DeliveryService,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.AuthSecret))

	auth := &authenticator{approval: approval, logger: logger, secure: config.EnableHTTPS}

	// Handlers
	identityHandler := NewIdentityHandler(approval, auth, logger, config)
	adminHandler := NewAdminHandler(approval, auth, logger, config)
	catalogHandler := NewCatalogHandler(catalog, auth, logger)
	deliveryHandler := NewDeliveryHandler(delivery, ledger, auth, logger, config)

	// Identity routes
	r.Post("/api/identity/register", identityHandler.Register)
	r.Post("/api/identity/login", identityHandler.Login)
	r.Post("/api/identity/logout", identityHandler.Logout)
	r.Get("/api/identity/me", identityHandler.Me)

	// Admin routes
	r.Post("/api/admin/login", adminHandler.Login)
	r.Get("/api/admin/identities", adminHandler.List)
	r.Post("/api/admin/identities/{email}/approve", adminHandler.Approve)
	r.Post("/api/admin/identities/{email}/reject", adminHandler.Reject)
	r.Delete("/api/admin/identities/{email}", adminHandler.Delete)

	// Catalog routes
	r.Get("/api/catalog/customers", catalogHandler.ListCustomers)
	r.Post("/api/catalog/customers", catalogHandler.AddCustomer)
	r.Delete("/api/catalog/customers/{name}", catalogHandler.DeleteCustomer)
	r.Get("/api/catalog/materials", catalogHandler.ListMaterials)
	r.Post("/api/catalog/materials", catalogHandler.UpsertMaterial)
	r.Delete("/api/catalog/materials/{name}", catalogHandler.DeleteMaterial)

	// Delivery routes
	r.Post("/api/quote", deliveryHandler.Quote)
	r.Post("/api/deliveries", deliveryHandler.Issue)
	r.Get("/api/deliveries", deliveryHandler.List)
	r.Get("/api/deliveries/{id}", deliveryHandler.Get)
	r.Get("/api/deliveries/{id}/document", deliveryHandler.Document)

	r.Handle("/metrics", promhttp.Handler())

	return &Handler{Router: r}
}

var validate = validator.New()

// authenticator превращает данные токена в актуальную учётную запись.
type authenticator struct {
	approval *service.ApprovalService
	logger   *zap.SugaredLogger
	secure   bool
}

// caller учётная запись вызывающего; при неудаче ответ уже записан.
func (a *authenticator) caller(w http.ResponseWriter, r *http.Request) (*model.Identity, bool) {
	p, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	identity, err := a.approval.Current(r.Context(), p.ID, p.Email, p.Role)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrBadCredential) {
			middleware.ClearLoginCookie(w, a.secure)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return nil, false
		}
		writeServiceError(w, a.logger, "caller", err)
		return nil, false
	}
	return identity, true
}

// admin то же, что caller, но только для администратора.
func (a *authenticator) admin(w http.ResponseWriter, r *http.Request) (*model.Identity, bool) {
	identity, ok := a.caller(w, r)
	if !ok {
		return nil, false
	}
	if !identity.IsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return nil, false
	}
	return identity, true
}

// decodeJSON читает тело и проверяет теги validate; при ошибке отвечает 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, op string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warnw(op+": invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		logger.Warnw(op+": validation failed", "error", err)
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "invalid " + verrs[0].Field() + ": " + verrs[0].Tag()
	}
	return "invalid request"
}

// writeServiceError переводит ошибку сервиса в HTTP-статус.
func writeServiceError(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, service.ErrNotApproved):
		http.Error(w, "not approved", http.StatusForbidden)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, service.ErrBadCredential):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, service.ErrDuplicateIdentity):
		http.Error(w, "already registered", http.StatusConflict)
	case errors.Is(err, service.ErrInvalidTransition):
		http.Error(w, "invalid status transition", http.StatusConflict)
	default:
		logger.Errorw(op+": service error", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

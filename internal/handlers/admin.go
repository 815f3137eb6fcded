package handlers

import (
	"BiomassLedger/internal/config"
	"BiomassLedger/internal/middleware"
	"BiomassLedger/internal/model"
	"BiomassLedger/internal/service"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminHandler вход администратора и управление заявками.
type AdminHandler struct {
	Approval *service.ApprovalService
	Logger   *zap.SugaredLogger
	Config   *config.Config
	auth     *authenticator
}

func NewAdminHandler(approval *service.ApprovalService, auth *authenticator, logger *zap.SugaredLogger, cfg *config.Config) *AdminHandler {
	return &AdminHandler{Approval: approval, Logger: logger, Config: cfg, auth: auth}
}

type adminLoginRequest struct {
	Secret string `json:"secret" validate:"required"`
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if !decodeJSON(w, r, h.Logger, "AdminLogin", &req) {
		return
	}
	admin, err := h.Approval.AuthenticateAdmin(req.Secret)
	if err != nil {
		h.Logger.Warnw("AdminLogin: rejected", "remote", r.RemoteAddr)
		writeServiceError(w, h.Logger, "AdminLogin", err)
		return
	}
	if err := middleware.SetLoginCookie(w, admin, h.Config.AuthSecret, h.Config.EnableHTTPS); err != nil {
		h.Logger.Errorw("AdminLogin: failed to issue token", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityDTO(admin))
}

// List учётные записи; ?status=pending|approved, без параметра: все.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.auth.admin(w, r)
	if !ok {
		return
	}

	status := model.Status(r.URL.Query().Get("status"))
	switch status {
	case "", model.StatusPending, model.StatusApproved:
	default:
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	list, err := h.Approval.ListIdentities(r.Context(), admin, status)
	if err != nil {
		writeServiceError(w, h.Logger, "ListIdentities", err)
		return
	}
	out := make([]IdentityDTO, 0, len(list))
	for i := range list {
		out = append(out, toIdentityDTO(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.admin(w, r); !ok {
		return
	}
	email, ok := emailParam(w, r)
	if !ok {
		return
	}
	if err := h.Approval.Approve(r.Context(), email); err != nil {
		writeServiceError(w, h.Logger, "Approve", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.admin(w, r); !ok {
		return
	}
	email, ok := emailParam(w, r)
	if !ok {
		return
	}
	if err := h.Approval.Reject(r.Context(), email); err != nil {
		writeServiceError(w, h.Logger, "Reject", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete удаляет учётную запись с каталогом и журналом.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.auth.admin(w, r)
	if !ok {
		return
	}
	email, ok := emailParam(w, r)
	if !ok {
		return
	}
	if err := h.Approval.Delete(r.Context(), admin, email); err != nil {
		writeServiceError(w, h.Logger, "Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	return pathParam(w, r, "email")
}

// pathParam раскодированный параметр пути.
func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil || v == "" {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return "", false
	}
	return v, true
}

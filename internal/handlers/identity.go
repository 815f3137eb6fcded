package handlers

import (
	"BiomassLedger/internal/config"
	"BiomassLedger/internal/middleware"
	"BiomassLedger/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// IdentityHandler регистрация и вход поставщиков.
type IdentityHandler struct {
	Approval *service.ApprovalService
	Logger   *zap.SugaredLogger
	Config   *config.Config
	auth     *authenticator
}

func NewIdentityHandler(approval *service.ApprovalService, auth *authenticator, logger *zap.SugaredLogger, cfg *config.Config) *IdentityHandler {
	return &IdentityHandler{Approval: approval, Logger: logger, Config: cfg, auth: auth}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Confirm  string `json:"confirm"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register создаёт заявку; вход возможен только после одобрения.
func (h *IdentityHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, h.Logger, "Register", &req) {
		return
	}
	if err := h.Approval.ValidateRegistration(req.Email, req.Password, req.Confirm); err != nil {
		writeServiceError(w, h.Logger, "Register", err)
		return
	}

	identity, err := h.Approval.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.Logger, "Register", err)
		return
	}
	writeJSON(w, http.StatusCreated, toIdentityDTO(identity))
}

// Login вход поставщика: выставляет cookie с токеном.
func (h *IdentityHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, h.Logger, "Login", &req) {
		return
	}

	identity, err := h.Approval.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.Logger, "Login", err)
		return
	}
	if err := middleware.SetLoginCookie(w, identity, h.Config.AuthSecret, h.Config.EnableHTTPS); err != nil {
		h.Logger.Errorw("Login: failed to issue token", "email", identity.Email, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityDTO(identity))
}

func (h *IdentityHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearLoginCookie(w, h.Config.EnableHTTPS)
	w.WriteHeader(http.StatusNoContent)
}

// Me текущая учётная запись.
func (h *IdentityHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.auth.caller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toIdentityDTO(identity))
}

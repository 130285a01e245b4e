package partners

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/platform/httpx"
)

// Handler serves the partner administration API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers partner routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPartners)
	r.Post("/", h.createPartner)
	r.Put("/{id}", h.updatePartner)
	r.Post("/{id}/activate", h.setActive(true))
	r.Post("/{id}/deactivate", h.setActive(false))
}

type partnerRequest struct {
	Name  string `json:"name" validate:"required"`
	TaxID string `json:"tax_id"`
}

func (h *Handler) listPartners(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	partners, err := h.service.ListPartners(r.Context(), *caller)
	if err != nil {
		h.logger.Error("list partners", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"partners": partners})
}

func (h *Handler) createPartner(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	var req partnerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Dados inválidos", err.Error())
		return
	}
	partner, err := h.service.CreatePartner(r.Context(), *caller, req.Name, req.TaxID)
	if err != nil {
		h.logger.Error("create partner", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, partner)
}

func (h *Handler) updatePartner(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	var req partnerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Dados inválidos", err.Error())
		return
	}
	partner, err := h.service.UpdatePartner(r.Context(), *caller, id, req.Name, req.TaxID)
	if err != nil {
		h.logger.Error("update partner", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, partner)
}

func (h *Handler) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := identity.FromContext(r.Context())
		if caller == nil {
			httpx.RespondError(w, r, httpx.ErrUnauthorized)
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.RespondError(w, r, httpx.ErrValidation)
			return
		}
		if err := h.service.SetActive(r.Context(), *caller, id, active); err != nil {
			h.logger.Error("set partner active", slog.Any("error", err))
			httpx.RespondError(w, r, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "is_active": active})
	}
}

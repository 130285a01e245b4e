package projects

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/platform/httpx"
)

// Handler serves the projects API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listProjects)
	r.Post("/", h.createProject)
	r.Put("/{id}", h.updateProject)
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	projects, err := h.service.ListProjects(r.Context(), *caller)
	if err != nil {
		h.logger.Error("list projects", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"projects": projects})
}

type createProjectRequest struct {
	PartnerID   int64  `json:"partner_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Kind        string `json:"kind" validate:"required,oneof=build ams"`
	Description string `json:"description"`
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	var req createProjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Dados inválidos", err.Error())
		return
	}
	project, err := h.service.CreateProject(r.Context(), *caller, CreateProjectParams{
		PartnerID:   req.PartnerID,
		Name:        req.Name,
		Kind:        Kind(req.Kind),
		Description: req.Description,
	})
	if err != nil {
		h.logger.Error("create project", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

type updateProjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
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
	var req updateProjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Dados inválidos", err.Error())
		return
	}
	project, err := h.service.UpdateProject(r.Context(), *caller, id, req.Name, req.Description, req.IsActive)
	if err != nil {
		h.logger.Error("update project", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

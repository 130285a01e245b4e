package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/platform/httpx"
)

// Handler serves the user administration API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Patch("/{id}", h.updateUser)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	users, err := h.service.ListUsers(r.Context(), *caller)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
}

type createUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Role      int16  `json:"role" validate:"required,min=1,max=3"`
	PartnerID *int64 `json:"partner_id"`
	IsClient  bool   `json:"is_client"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Dados inválidos", err.Error())
		return
	}
	user, err := h.service.CreateUser(r.Context(), *caller,
		req.Email, req.Password, req.FirstName, req.LastName,
		identity.Role(req.Role), req.PartnerID, req.IsClient)
	if err != nil {
		h.logger.Error("create user", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

type updateUserRequest struct {
	Role     int16 `json:"role" validate:"required,min=1,max=3"`
	IsActive bool  `json:"is_active"`
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
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
	var req updateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Dados inválidos", err.Error())
		return
	}
	user, err := h.service.UpdateUser(r.Context(), *caller, id, UpdateUserParams{
		Role:     identity.Role(req.Role),
		IsActive: req.IsActive,
	})
	if err != nil {
		h.logger.Error("update user", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

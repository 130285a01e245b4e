package timesheet

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/platform/httpx"
)

// Handler serves the timesheet API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers timesheet routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listEntries)
	r.Post("/", h.createEntry)
	r.Put("/{id}", h.updateEntry)
	r.Delete("/{id}", h.deleteEntry)
	r.Get("/summary", h.monthlySummary)
}

// yearMonth parses ?year=&month= with the current month as default.
func yearMonth(r *http.Request) (int, time.Month, error) {
	now := time.Now()
	year, month := now.Year(), now.Month()
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, err
		}
		year = n
	}
	if v := r.URL.Query().Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			return 0, 0, httpx.ErrValidation
		}
		month = time.Month(n)
	}
	return year, month, nil
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	year, month, err := yearMonth(r)
	if err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	entries, err := h.service.ListEntries(r.Context(), *caller, year, month)
	if err != nil {
		h.logger.Error("list timesheet entries", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type entryRequest struct {
	ProjectID int64  `json:"project_id" validate:"required"`
	WorkedOn  string `json:"worked_on" validate:"required,datetime=2006-01-02"`
	Minutes   int    `json:"minutes" validate:"required,min=1,max=1440"`
	Note      string `json:"note"`
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	var req entryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Dados inválidos", err.Error())
		return
	}
	workedOn, _ := time.Parse("2006-01-02", req.WorkedOn)
	entry, err := h.service.CreateEntry(r.Context(), *caller, req.ProjectID, workedOn, req.Minutes, req.Note)
	if err != nil {
		h.logger.Error("create timesheet entry", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

type updateEntryRequest struct {
	Minutes int    `json:"minutes" validate:"required,min=1,max=1440"`
	Note    string `json:"note"`
}

func (h *Handler) updateEntry(w http.ResponseWriter, r *http.Request) {
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
	var req updateEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Dados inválidos", err.Error())
		return
	}
	entry, err := h.service.UpdateEntry(r.Context(), *caller, id, req.Minutes, req.Note)
	if err != nil {
		h.logger.Error("update timesheet entry", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
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
	if err := h.service.DeleteEntry(r.Context(), *caller, id); err != nil {
		h.logger.Error("delete timesheet entry", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) monthlySummary(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	year, month, err := yearMonth(r)
	if err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	summary, err := h.service.MonthlySummary(r.Context(), *caller, year, month)
	if err != nil {
		h.logger.Error("timesheet summary", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

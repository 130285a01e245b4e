package tickets

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

// Handler serves the helpdesk API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers ticket and SLA rule routes on the API router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.Get("/", h.listTickets)
		r.Post("/", h.createTicket)
		r.Get("/{id}", h.getTicket)
		r.Patch("/{id}/status", h.updateStatus)
		r.Post("/{id}/messages", h.addMessage)
		r.Post("/{id}/hours", h.logHours)
		r.Get("/{id}/hours", h.ticketHours)
	})
	r.Route("/sla-rules", func(r chi.Router) {
		r.Get("/", h.listSLARules)
		r.Post("/", h.createSLARule)
		r.Put("/{id}", h.updateSLARule)
		r.Delete("/{id}", h.deleteSLARule)
	})
}

func (h *Handler) listTickets(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	tickets, pagination, err := h.service.ListTickets(r.Context(), *caller, page, perPage)
	if err != nil {
		h.logger.Error("list tickets", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tickets": tickets, "pagination": pagination})
}

type createTicketRequest struct {
	PartnerID   int64  `json:"partner_id"`
	ProjectID   *int64 `json:"project_id"`
	Subject     string `json:"subject" validate:"required,max=200"`
	Description string `json:"description"`
	Priority    string `json:"priority" validate:"required,oneof=low medium high critical"`
}

func (h *Handler) createTicket(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	var req createTicketRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Dados inválidos", err.Error())
		return
	}
	ticket, err := h.service.CreateTicket(r.Context(), *caller,
		req.PartnerID, req.ProjectID, req.Subject, req.Description, Priority(req.Priority))
	if err != nil {
		h.logger.Error("create ticket", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ticket)
}

func (h *Handler) getTicket(w http.ResponseWriter, r *http.Request) {
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
	ticket, messages, err := h.service.GetTicket(r.Context(), *caller, id)
	if err != nil {
		h.logger.Error("get ticket", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"ticket":   ticket,
		"messages": messages,
	})
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
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
	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Dados inválidos", err.Error())
		return
	}
	ticket, err := h.service.UpdateStatus(r.Context(), *caller, id, Status(req.Status))
	if err != nil {
		h.logger.Error("update ticket status", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ticket)
}

type addMessageRequest struct {
	Body     string `json:"body" validate:"required"`
	Internal bool   `json:"internal"`
}

func (h *Handler) addMessage(w http.ResponseWriter, r *http.Request) {
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
	var req addMessageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Dados inválidos", err.Error())
		return
	}
	message, err := h.service.AddMessage(r.Context(), *caller, id, req.Body, req.Internal)
	if err != nil {
		h.logger.Error("add ticket message", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, message)
}

type logHoursRequest struct {
	WorkedOn string `json:"worked_on" validate:"required,datetime=2006-01-02"`
	Minutes  int    `json:"minutes" validate:"required,min=1,max=1440"`
	Note     string `json:"note"`
}

func (h *Handler) logHours(w http.ResponseWriter, r *http.Request) {
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
	var req logHoursRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Dados inválidos", err.Error())
		return
	}
	workedOn, _ := time.Parse("2006-01-02", req.WorkedOn)
	entry, err := h.service.LogHours(r.Context(), *caller, id, workedOn, req.Minutes, req.Note)
	if err != nil {
		h.logger.Error("log ticket hours", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) ticketHours(w http.ResponseWriter, r *http.Request) {
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
	total, err := h.service.TicketHours(r.Context(), *caller, id)
	if err != nil {
		h.logger.Error("sum ticket hours", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ticket_id": id, "minutes": total})
}

func (h *Handler) listSLARules(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	rules, err := h.service.ListSLARules(r.Context(), *caller)
	if err != nil {
		h.logger.Error("list sla rules", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rules": rules})
}

type slaRuleRequest struct {
	Priority          string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	ResponseMinutes   int    `json:"response_minutes" validate:"required,min=1"`
	ResolutionMinutes int    `json:"resolution_minutes" validate:"required,min=1"`
}

func (h *Handler) createSLARule(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	var req slaRuleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Dados inválidos", err.Error())
		return
	}
	rule, err := h.service.CreateSLARule(r.Context(), *caller,
		Priority(req.Priority), req.ResponseMinutes, req.ResolutionMinutes)
	if err != nil {
		h.logger.Error("create sla rule", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rule)
}

func (h *Handler) updateSLARule(w http.ResponseWriter, r *http.Request) {
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
	var req slaRuleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Dados inválidos", err.Error())
		return
	}
	rule, err := h.service.UpdateSLARule(r.Context(), *caller, id, req.ResponseMinutes, req.ResolutionMinutes)
	if err != nil {
		h.logger.Error("update sla rule", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rule)
}

func (h *Handler) deleteSLARule(w http.ResponseWriter, r *http.Request) {
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
	if err := h.service.DeleteSLARule(r.Context(), *caller, id); err != nil {
		h.logger.Error("delete sla rule", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

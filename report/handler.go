package report

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/platform/httpx"
	"github.com/numen-ops/easytime/internal/timesheet"
)

// Handler serves PDF exports.
type Handler struct {
	client     *Client
	timesheets *timesheet.Service
	logger     *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, timesheets *timesheet.Service, logger *slog.Logger) *Handler {
	return &Handler{client: client, timesheets: timesheets, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/timesheet", h.monthlyTimesheet)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) monthlyTimesheet(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		httpx.RespondError(w, r, httpx.ErrUnauthorized)
		return
	}
	now := time.Now()
	year, month := now.Year(), now.Month()
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpx.RespondError(w, r, httpx.ErrValidation)
			return
		}
		year = n
	}
	if v := r.URL.Query().Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			httpx.RespondError(w, r, httpx.ErrValidation)
			return
		}
		month = time.Month(n)
	}

	summary, err := h.timesheets.MonthlySummary(r.Context(), *caller, year, month)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	html, err := MonthlyTimesheetHTML(caller.FullName(), *summary)
	if err != nil {
		h.logger.Error("render timesheet report", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	pdf, err := h.client.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("convert timesheet report", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=apontamentos-%d-%02d.pdf", year, month))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

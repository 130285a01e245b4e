package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/shared"
	"github.com/numen-ops/easytime/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the root router. The login
// pages live outside the /auth prefix; only the password update page
// is reachable under it.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/auth/update-password", h.showUpdatePassword)
	r.Post("/auth/update-password", h.handleUpdatePassword)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, loginPageData{}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}

	if len(errs) == 0 {
		user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err != nil {
			errs["general"] = "Email ou senha inválidos"
		} else {
			if sess == nil {
				h.logger.Error("session missing during login")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			sess.SetUser(strconv.FormatInt(user.ID, 10))
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Bem-vindo de volta, " + user.FirstName})
			expiresAt := time.Now().Add(h.sessionManager.TTL())
			if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
				h.logger.Warn("register session", slog.Any("error", err))
			}
			http.Redirect(w, r, "/main", http.StatusSeeOther)
			return
		}
	}

	h.renderLogin(w, r, loginPageData{Form: form, Errors: errs}, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type passwordForm struct {
	Password string `validate:"required,min=8"`
	Confirm  string `validate:"required,eqfield=Password"`
}

type passwordPageData struct {
	Errors map[string]string
}

func (h *Handler) showUpdatePassword(w http.ResponseWriter, r *http.Request) {
	h.renderPassword(w, r, passwordPageData{}, http.StatusOK)
}

func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	userID, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	form := passwordForm{
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm"),
	}
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}
	if len(errs) > 0 {
		h.renderPassword(w, r, passwordPageData{Errors: errs}, http.StatusBadRequest)
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, form.Password); err != nil {
		h.logger.Error("change password", slog.Any("error", err))
		errs["general"] = shared.UserSafeMessage(err)
		h.renderPassword(w, r, passwordPageData{Errors: errs}, http.StatusInternalServerError)
		return
	}

	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Senha atualizada"})
	http.Redirect(w, r, "/main", http.StatusSeeOther)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, data loginPageData, status int) {
	h.render(w, r, "pages/login.html", "Entrar", data, status)
}

func (h *Handler) renderPassword(w http.ResponseWriter, r *http.Request, data passwordPageData, status int) {
	h.render(w, r, "pages/update_password.html", "Atualizar Senha", data, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Identity:    identity.FromContext(r.Context()),
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render auth page", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

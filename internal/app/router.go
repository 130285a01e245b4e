package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/numen-ops/easytime/internal/auth"
	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/observability"
	"github.com/numen-ops/easytime/internal/partners"
	"github.com/numen-ops/easytime/internal/policy"
	"github.com/numen-ops/easytime/internal/projects"
	"github.com/numen-ops/easytime/internal/shared"
	"github.com/numen-ops/easytime/internal/tickets"
	"github.com/numen-ops/easytime/internal/timesheet"
	"github.com/numen-ops/easytime/internal/users"
	"github.com/numen-ops/easytime/internal/view"
	"github.com/numen-ops/easytime/report"
	"github.com/numen-ops/easytime/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Templates        *view.Engine
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	Policy           *policy.Policy
	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	PartnersHandler  *partners.Handler
	ProjectsHandler  *projects.Handler
	TicketsHandler   *tickets.Handler
	TimesheetHandler *timesheet.Handler
	ReportHandler    *report.Handler
	Metrics          *observability.Metrics
	Middlewares      []func(http.Handler) http.Handler
}

// NewRouter constructs the chi.Router with EasyTime defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range params.Middlewares {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	pages := pageRenderer{
		logger:    params.Logger,
		templates: params.Templates,
		csrf:      params.CSRFManager,
		policy:    params.Policy,
	}

	// Landing page. Authenticated callers go straight to the home page.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if identity.FromContext(r.Context()) != nil {
			http.Redirect(w, r, "/main", http.StatusSeeOther)
			return
		}
		pages.render(w, r, "pages/landing.html", "EasyTime", nil)
	})

	r.Get(policy.PathDenied, func(w http.ResponseWriter, r *http.Request) {
		pages.render(w, r, "pages/denied.html", "Acesso Restrito", nil)
	})

	r.Get("/main", func(w http.ResponseWriter, r *http.Request) {
		if identity.FromContext(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		pages.render(w, r, "pages/home.html", "Início", nil)
	})

	if params.AuthHandler != nil {
		params.AuthHandler.MountRoutes(r)
	}

	// One shell page per catalog entry. The guard has already blocked
	// hidden paths; what remains here is plain rendering.
	for _, section := range params.Policy.Catalog() {
		if section.Path == "/main" {
			continue
		}
		r.Get(section.Path, pages.sectionPage(section))
		for _, item := range section.Items {
			r.Get(item.Path, pages.sectionPage(section))
		}
	}

	r.Route("/api/v1", func(api chi.Router) {
		if params.UsersHandler != nil {
			api.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.PartnersHandler != nil {
			api.Route("/partners", params.PartnersHandler.MountRoutes)
		}
		if params.ProjectsHandler != nil {
			api.Route("/projects", params.ProjectsHandler.MountRoutes)
		}
		if params.TicketsHandler != nil {
			params.TicketsHandler.MountRoutes(api)
		}
		if params.TimesheetHandler != nil {
			api.Route("/timesheet", params.TimesheetHandler.MountRoutes)
		}
		if params.ReportHandler != nil {
			api.Route("/reports", params.ReportHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

type pageRenderer struct {
	logger    *slog.Logger
	templates *view.Engine
	csrf      *shared.CSRFManager
	policy    *policy.Policy
}

type sectionPageData struct {
	Items []policy.Item
}

func (p pageRenderer) sectionPage(section policy.Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if identity.FromContext(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		title := section.Label
		for _, item := range section.Items {
			if item.Path == r.URL.Path {
				title = item.Name
			}
		}
		p.render(w, r, "pages/section.html", title, sectionPageData{Items: section.Items})
	}
}

func (p pageRenderer) render(w http.ResponseWriter, r *http.Request, template, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := p.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	id := identity.FromContext(r.Context())
	var menu []policy.Section
	if id != nil {
		menu = p.policy.VisibleSections(*id)
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Identity:    id,
		Menu:        menu,
		Data:        data,
	}
	if err := p.templates.Render(w, template, viewData); err != nil {
		p.logger.Error("render page", slog.String("template", template), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

// Package guard intercepts every inbound request, resolves the caller
// identity once, and enforces the role policy on the requested path.
// It deliberately fails open when identity resolution errors: public
// pages stay reachable and every protected handler re-checks the
// threaded identity on its own.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/observability"
	"github.com/numen-ops/easytime/internal/policy"
	"github.com/numen-ops/easytime/internal/shared"
)

const (
	authPrefix     = "/auth/"
	authExemptPath = "/auth/update-password"
)

// alwaysAllowed are reachable without any policy evaluation. The deny
// redirect targets must live here or a blocked profile would loop.
var alwaysAllowed = map[string]struct{}{
	policy.PathLanding: {},
	policy.PathDenied:  {},
	authExemptPath:     {},
}

// ResolverPort resolves the request identity from its session.
type ResolverPort interface {
	Resolve(ctx context.Context, sess *shared.Session) (*identity.Identity, error)
}

// Middleware wires the route guard into the HTTP chain.
type Middleware struct {
	Logger   *slog.Logger
	Resolver ResolverPort
	Policy   *policy.Policy
	Sessions *shared.SessionManager
	Metrics  *observability.Metrics
}

// Handler runs the per-request guard state machine.
func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if _, ok := alwaysAllowed[path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		if strings.HasPrefix(path, authPrefix) && path != authExemptPath {
			http.Redirect(w, r, policy.PathLanding, http.StatusFound)
			return
		}

		sess := shared.SessionFromContext(r.Context())
		id, err := m.Resolver.Resolve(r.Context(), sess)
		if err != nil {
			// No resolvable identity: pass through without elevated
			// trust. Downstream handlers reject unauthenticated
			// access themselves.
			if !errors.Is(err, identity.ErrUnauthenticated) && m.Logger != nil {
				m.Logger.Warn("guard resolve identity", slog.String("path", path), slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}

		if !id.IsActive {
			m.Sessions.Destroy(sess)
			http.Redirect(w, r, policy.PathLanding, http.StatusFound)
			return
		}

		decision := m.Policy.Evaluate(*id, path)
		if !decision.Allow {
			m.Metrics.RecordGuardDenial(string(id.Profile()))
			if m.Logger != nil {
				m.Logger.Info("guard deny",
					slog.String("path", path),
					slog.String("profile", string(id.Profile())),
					slog.String("reason", decision.Reason))
			}
			http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.ContextWith(r.Context(), id)))
	})
}

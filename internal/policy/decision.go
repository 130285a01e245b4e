package policy

import "github.com/numen-ops/easytime/internal/identity"

// Decision is the outcome of evaluating an identity against a
// requested path. Computed fresh per request, never cached.
type Decision struct {
	Allow      bool
	RedirectTo string
	Reason     string
}

// Allowed builds an allow decision.
func Allowed() Decision {
	return Decision{Allow: true}
}

// Denied builds a deny decision with its redirect target.
func Denied(target, reason string) Decision {
	return Decision{RedirectTo: target, Reason: reason}
}

// Evaluate decides whether the identity may reach the path. The HTTP
// layer translates a deny into a redirect; this function stays pure.
func (p *Policy) Evaluate(id identity.Identity, path string) Decision {
	if !id.IsActive {
		return Denied(PathLanding, "conta desativada")
	}
	if p.IsPathBlocked(id, path) {
		return Denied(PathDenied, "seção oculta para o perfil "+string(id.Profile()))
	}
	return Allowed()
}

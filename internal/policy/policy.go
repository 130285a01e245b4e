// Package policy holds the role policy: the static rule table mapping
// profiles to hidden navigation, the navigation catalog, and the pure
// evaluators shared by the route guard and the menu rendering. Both
// consumers read the same table, so the two can never drift.
package policy

import "github.com/numen-ops/easytime/internal/identity"

// Redirect targets used by deny decisions. Both are always-allowed
// routes.
const (
	PathLanding = "/"
	PathDenied  = "/acesso-restrito"
)

// Policy evaluates identities against the rule table and catalog.
// Immutable after construction; safe for concurrent use.
type Policy struct {
	rules   []Rule
	catalog []Section
}

var defaultPolicy = New(DefaultRules(), DefaultCatalog())

// Default returns the process-wide policy built from the static rule
// table and catalog.
func Default() *Policy {
	return defaultPolicy
}

// New builds a Policy from an explicit rule table and catalog.
func New(rules []Rule, catalog []Section) *Policy {
	return &Policy{rules: rules, catalog: catalog}
}

// Catalog returns the navigation tree the policy evaluates against.
func (p *Policy) Catalog() []Section {
	return p.catalog
}

// IsSectionHidden reports whether the section (or, when child is
// non-empty, that child item) is hidden for the identity. The result
// is the union over every matching rule, so evaluation order never
// affects the outcome. An unknown profile hides everything.
func (p *Policy) IsSectionHidden(id identity.Identity, section, child string) bool {
	profile := id.Profile()
	if profile == identity.ProfileUnknown {
		return true
	}
	for _, rule := range p.rules {
		if !rule.matches(profile) {
			continue
		}
		for _, hide := range rule.Hide {
			if hide.Section != section {
				continue
			}
			if len(hide.Items) == 0 {
				return true
			}
			if child == "" {
				continue
			}
			for _, item := range hide.Items {
				if item == child {
					return true
				}
			}
		}
	}
	return false
}

// IsPathBlocked reports whether the path equals a hidden section's
// root path or a hidden child item's path.
func (p *Policy) IsPathBlocked(id identity.Identity, path string) bool {
	for _, section := range p.catalog {
		if path == section.Path && p.IsSectionHidden(id, section.ID, "") {
			return true
		}
		for _, item := range section.Items {
			if path == item.Path && p.IsSectionHidden(id, section.ID, item.Name) {
				return true
			}
		}
	}
	return false
}

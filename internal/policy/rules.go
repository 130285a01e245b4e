package policy

import "github.com/numen-ops/easytime/internal/identity"

// Hide names a section to hide. An empty Items list hides the whole
// section; otherwise only the named child items are hidden and their
// siblings stay visible.
type Hide struct {
	Section string
	Items   []string
}

// Rule hides navigation for the listed profiles. Rules are evaluated
// independently and their hide-lists are unioned; a section hidden by
// any matching rule stays hidden.
type Rule struct {
	Name     string
	Profiles []identity.Profile
	Hide     []Hide
}

// matches reports whether the rule applies to the given profile.
func (r Rule) matches(profile identity.Profile) bool {
	for _, p := range r.Profiles {
		if p == profile {
			return true
		}
	}
	return false
}

// defaultRules is the process-wide rule table. Loaded once, immutable
// thereafter.
var defaultRules = []Rule{
	{
		Name: "clientes-sem-utilitarios",
		Profiles: []identity.Profile{
			identity.ProfileAdminClient,
			identity.ProfileManagerClient,
			identity.ProfileFunctionalClient,
		},
		Hide: []Hide{
			{Section: SectionUtils},
		},
	},
	{
		Name:     "admin-cliente-sem-cadastros",
		Profiles: []identity.Profile{identity.ProfileAdminClient},
		Hide: []Hide{
			{Section: SectionAdmin, Items: []string{"Parceiros", "Usuários"}},
		},
	},
	{
		Name: "clientes-operacionais",
		Profiles: []identity.Profile{
			identity.ProfileManagerClient,
			identity.ProfileFunctionalClient,
		},
		Hide: []Hide{
			{Section: SectionAdmin},
			{Section: SectionSmartBuild},
		},
	},
	{
		Name:     "funcional-sem-gestao",
		Profiles: []identity.Profile{identity.ProfileFunctionalAdm},
		Hide: []Hide{
			{Section: SectionAMS, Items: []string{"Gestão AMS"}},
			{Section: SectionAdmin, Items: []string{"Parceiros"}},
		},
	},
}

// DefaultRules returns the process-wide rule table.
func DefaultRules() []Rule {
	return defaultRules
}

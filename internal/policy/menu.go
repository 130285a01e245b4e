package policy

import "github.com/numen-ops/easytime/internal/identity"

// VisibleSections filters the catalog down to what the identity may
// see. Pure and idempotent; the result is a fresh tree so callers can
// never mutate the catalog. The filtered menu is advisory for the UI;
// enforcement stays with the route guard.
func (p *Policy) VisibleSections(id identity.Identity) []Section {
	visible := make([]Section, 0, len(p.catalog))
	for _, section := range p.catalog {
		if p.IsSectionHidden(id, section.ID, "") {
			continue
		}
		filtered := Section{
			ID:    section.ID,
			Label: section.Label,
			Path:  section.Path,
		}
		for _, item := range section.Items {
			if p.IsSectionHidden(id, section.ID, item.Name) {
				continue
			}
			filtered.Items = append(filtered.Items, item)
		}
		visible = append(visible, filtered)
	}
	return visible
}

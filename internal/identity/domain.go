package identity

// Role is the coarse permission level stored on the user record.
type Role int16

// Valid roles. The numeric values are part of the stored schema.
const (
	RoleAdmin      Role = 1
	RoleManager    Role = 2
	RoleFunctional Role = 3
)

// Valid reports whether the role is one of the three known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleFunctional
}

// Profile is the label derived from (role, is_client). It drives the
// navigation hide rules.
type Profile string

const (
	ProfileAdminAdm         Profile = "admin-adm"
	ProfileManagerAdm       Profile = "manager-adm"
	ProfileFunctionalAdm    Profile = "functional-adm"
	ProfileAdminClient      Profile = "admin-client"
	ProfileManagerClient    Profile = "manager-client"
	ProfileFunctionalClient Profile = "functional-client"

	// ProfileUnknown is returned for any (role, is_client) pair
	// outside the valid domain. Callers must treat it as
	// non-privileged: render nothing, permit nothing extra.
	ProfileUnknown Profile = ""
)

// Classify derives the profile from role and client flag. Total over
// the six valid combinations; anything else maps to ProfileUnknown.
func Classify(role Role, isClient bool) Profile {
	switch role {
	case RoleAdmin:
		if isClient {
			return ProfileAdminClient
		}
		return ProfileAdminAdm
	case RoleManager:
		if isClient {
			return ProfileManagerClient
		}
		return ProfileManagerAdm
	case RoleFunctional:
		if isClient {
			return ProfileFunctionalClient
		}
		return ProfileFunctionalAdm
	default:
		return ProfileUnknown
	}
}

// Identity is the resolved caller for the duration of one request.
// Constructed by the Resolver, threaded through context, never
// mutated.
type Identity struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	Role      Role
	PartnerID *int64
	IsClient  bool
	IsActive  bool
}

// Profile returns the derived profile label.
func (id Identity) Profile() Profile {
	return Classify(id.Role, id.IsClient)
}

// ScopeKind tells how far a data query may reach for this caller.
type ScopeKind int

const (
	// ScopeUnrestricted applies no additional filter.
	ScopeUnrestricted ScopeKind = iota
	// ScopePartner narrows rows to the caller's partner.
	ScopePartner
	// ScopeSelf narrows rows to the caller's own records.
	ScopeSelf
)

// Scope is the query-narrowing decision for resource listings.
type Scope struct {
	Kind      ScopeKind
	PartnerID int64
	UserID    int64
}

// Scope computes the caller's data scope. Only a non-client admin is
// unrestricted; a client admin with a partner affiliation stays
// partner-scoped.
func (id Identity) Scope() Scope {
	if id.Role == RoleAdmin && !id.IsClient {
		return Scope{Kind: ScopeUnrestricted}
	}
	if id.PartnerID != nil {
		return Scope{Kind: ScopePartner, PartnerID: *id.PartnerID, UserID: id.ID}
	}
	return Scope{Kind: ScopeSelf, UserID: id.ID}
}

// FullName joins first and last names for display.
func (id Identity) FullName() string {
	switch {
	case id.FirstName == "":
		return id.LastName
	case id.LastName == "":
		return id.FirstName
	default:
		return id.FirstName + " " + id.LastName
	}
}

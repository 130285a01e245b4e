package projects

import "time"

// Kind distinguishes one-off build projects from AMS contracts.
type Kind string

const (
	KindBuild Kind = "build"
	KindAMS   Kind = "ams"
)

// Valid reports whether the kind is known.
func (k Kind) Valid() bool {
	return k == KindBuild || k == KindAMS
}

// Project is a SmartBuild project or an AMS contract owned by a
// partner.
type Project struct {
	ID          int64     `json:"id"`
	PartnerID   int64     `json:"partner_id"`
	Name        string    `json:"name"`
	Kind        Kind      `json:"kind"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

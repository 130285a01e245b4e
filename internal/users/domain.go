package users

import (
	"time"

	"github.com/numen-ops/easytime/internal/identity"
)

// User represents a user account for administration.
type User struct {
	ID        int64         `json:"id"`
	Email     string        `json:"email"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Role      identity.Role `json:"role"`
	PartnerID *int64        `json:"partner_id"`
	IsClient  bool          `json:"is_client"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

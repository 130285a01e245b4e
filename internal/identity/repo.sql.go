package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/numen-ops/easytime/internal/shared"
)

// Repository provides PostgreSQL backed identity lookups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetUser fetches the identity fields for one user.
func (r *Repository) GetUser(ctx context.Context, id int64) (*Identity, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, role, partner_id, is_client, is_active
		FROM users
		WHERE id = $1`, id)
	var out Identity
	if err := row.Scan(&out.ID, &out.Email, &out.FirstName, &out.LastName, &out.Role, &out.PartnerID, &out.IsClient, &out.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

var _ RepositoryPort = (*Repository)(nil)

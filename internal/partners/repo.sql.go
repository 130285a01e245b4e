package partners

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/numen-ops/easytime/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const partnerColumns = `id, name, tax_id, is_active, created_at, updated_at`

// ListPartners returns all partners ordered by name.
func (r *Repository) ListPartners(ctx context.Context) ([]Partner, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+partnerColumns+` FROM partners ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var partners []Partner
	for rows.Next() {
		partner, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, partner)
	}
	return partners, rows.Err()
}

// GetPartner fetches one partner.
func (r *Repository) GetPartner(ctx context.Context, id int64) (*Partner, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id)
	partner, err := scanPartner(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: parceiro %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &partner, nil
}

// CreatePartner inserts a new partner.
func (r *Repository) CreatePartner(ctx context.Context, name, taxID string) (*Partner, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO partners (name, tax_id, is_active, created_at, updated_at)
		VALUES ($1, $2, TRUE, now(), now())
		RETURNING `+partnerColumns, name, taxID)
	partner, err := scanPartner(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: parceiro já cadastrado", httpx.ErrDuplicate)
		}
		return nil, err
	}
	return &partner, nil
}

// UpdatePartner edits partner master data.
func (r *Repository) UpdatePartner(ctx context.Context, id int64, name, taxID string) (*Partner, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE partners SET name = $2, tax_id = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+partnerColumns, id, name, taxID)
	partner, err := scanPartner(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: parceiro %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &partner, nil
}

// SetActive toggles the active flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE partners SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: parceiro %d", httpx.ErrNotFound, id)
	}
	return nil
}

func scanPartner(row pgx.Row) (Partner, error) {
	var partner Partner
	err := row.Scan(&partner.ID, &partner.Name, &partner.TaxID, &partner.IsActive,
		&partner.CreatedAt, &partner.UpdatedAt)
	return partner, err
}

var _ RepositoryPort = (*Repository)(nil)

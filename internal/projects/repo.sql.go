package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
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

const projectColumns = `id, partner_id, name, kind, description, is_active, created_at, updated_at`

// ListAll returns every project.
func (r *Repository) ListAll(ctx context.Context) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProjects(rows)
}

// ListByPartner returns the partner's projects, optionally AMS only.
func (r *Repository) ListByPartner(ctx context.Context, partnerID int64, onlyAMS bool) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE partner_id = $1`
	args := []any{partnerID}
	if onlyAMS {
		query += ` AND kind = $2`
		args = append(args, KindAMS)
	}
	query += ` ORDER BY name`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProjects(rows)
}

// ListAllocated returns projects the user is a member of. Two
// dependent reads collapsed into one join; the membership table is
// the allocation source.
func (r *Repository) ListAllocated(ctx context.Context, userID int64) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.partner_id, p.name, p.kind, p.description, p.is_active, p.created_at, p.updated_at
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = $1
		ORDER BY p.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProjects(rows)
}

// GetProject fetches one project.
func (r *Repository) GetProject(ctx context.Context, id int64) (*Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: projeto %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &project, nil
}

// CreateProject inserts a new project.
func (r *Repository) CreateProject(ctx context.Context, params CreateProjectParams) (*Project, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO projects (partner_id, name, kind, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, now(), now())
		RETURNING `+projectColumns,
		params.PartnerID, params.Name, params.Kind, params.Description)
	project, err := scanProject(row)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject edits a project.
func (r *Repository) UpdateProject(ctx context.Context, id int64, name, description string, active bool) (*Project, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE projects SET name = $2, description = $3, is_active = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+projectColumns, id, name, description, active)
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: projeto %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &project, nil
}

func collectProjects(rows pgx.Rows) ([]Project, error) {
	var projects []Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func scanProject(row pgx.Row) (Project, error) {
	var project Project
	err := row.Scan(&project.ID, &project.PartnerID, &project.Name, &project.Kind,
		&project.Description, &project.IsActive, &project.CreatedAt, &project.UpdatedAt)
	return project, err
}

var _ RepositoryPort = (*Repository)(nil)

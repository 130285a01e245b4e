package timesheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/numen-ops/easytime/internal/identity"
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

const entryColumns = `id, user_id, project_id, worked_on, minutes, note, created_at, updated_at`

func monthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// ListEntries returns one month of entries narrowed by scope.
func (r *Repository) ListEntries(ctx context.Context, scope identity.Scope, year int, month time.Month) ([]Entry, error) {
	start, end := monthBounds(year, month)
	query := `SELECT ` + entryColumns + ` FROM timesheet_entries
		WHERE worked_on >= $1 AND worked_on < $2`
	args := []any{start, end}
	switch scope.Kind {
	case identity.ScopePartner:
		query += ` AND user_id IN (SELECT id FROM users WHERE partner_id = $3)`
		args = append(args, scope.PartnerID)
	case identity.ScopeSelf:
		query += ` AND user_id = $3`
		args = append(args, scope.UserID)
	}
	query += ` ORDER BY worked_on, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetEntry fetches a single entry.
func (r *Repository) GetEntry(ctx context.Context, id int64) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM timesheet_entries WHERE id = $1`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: apontamento %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &entry, nil
}

// CreateEntry inserts a new entry.
func (r *Repository) CreateEntry(ctx context.Context, userID, projectID int64, workedOn time.Time, minutes int, note string) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO timesheet_entries (user_id, project_id, worked_on, minutes, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING `+entryColumns,
		userID, projectID, workedOn, minutes, note)
	entry, err := scanEntry(row)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEntry changes minutes and note on an entry.
func (r *Repository) UpdateEntry(ctx context.Context, id int64, minutes int, note string) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE timesheet_entries SET minutes = $2, note = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+entryColumns,
		id, minutes, note)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: apontamento %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry removes an entry.
func (r *Repository) DeleteEntry(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM timesheet_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: apontamento %d", httpx.ErrNotFound, id)
	}
	return nil
}

// SumByProject aggregates one user's month per project.
func (r *Repository) SumByProject(ctx context.Context, userID int64, year int, month time.Month) ([]ProjectTotal, error) {
	start, end := monthBounds(year, month)
	rows, err := r.pool.Query(ctx, `
		SELECT e.project_id, p.name, SUM(e.minutes)
		FROM timesheet_entries e
		JOIN projects p ON p.id = e.project_id
		WHERE e.user_id = $1 AND e.worked_on >= $2 AND e.worked_on < $3
		GROUP BY e.project_id, p.name
		ORDER BY p.name`,
		userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var totals []ProjectTotal
	for rows.Next() {
		var t ProjectTotal
		if err := rows.Scan(&t.ProjectID, &t.ProjectName, &t.Minutes); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// SumByDay aggregates one user's month per calendar day.
func (r *Repository) SumByDay(ctx context.Context, userID int64, year int, month time.Month) ([]DayTotal, error) {
	start, end := monthBounds(year, month)
	rows, err := r.pool.Query(ctx, `
		SELECT worked_on, SUM(minutes)
		FROM timesheet_entries
		WHERE user_id = $1 AND worked_on >= $2 AND worked_on < $3
		GROUP BY worked_on
		ORDER BY worked_on`,
		userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var totals []DayTotal
	for rows.Next() {
		var t DayTotal
		if err := rows.Scan(&t.Day, &t.Minutes); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.WorkedOn,
		&e.Minutes, &e.Note, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

var _ RepositoryPort = (*Repository)(nil)

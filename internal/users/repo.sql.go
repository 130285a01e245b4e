package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const userColumns = `id, email, first_name, last_name, role, partner_id, is_client, is_active, created_at, updated_at`

// ListUsers returns users narrowed by the caller's scope.
func (r *Repository) ListUsers(ctx context.Context, scope identity.Scope) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	switch scope.Kind {
	case identity.ScopePartner:
		query += ` WHERE partner_id = $1`
		args = append(args, scope.PartnerID)
	case identity.ScopeSelf:
		query += ` WHERE id = $1`
		args = append(args, scope.UserID)
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetUser fetches a single user.
func (r *Repository) GetUser(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: usuário %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new account.
func (r *Repository) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, role, partner_id, is_client, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, now(), now())
		RETURNING `+userColumns,
		params.Email, params.PasswordHash, params.FirstName, params.LastName,
		params.Role, params.PartnerID, params.IsClient)
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email já cadastrado", httpx.ErrDuplicate)
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies administration changes to an account.
func (r *Repository) UpdateUser(ctx context.Context, id int64, params UpdateUserParams) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET role = $2, is_active = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, params.Role, params.IsActive)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: usuário %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &user, nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName,
		&user.Role, &user.PartnerID, &user.IsClient, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ RepositoryPort = (*Repository)(nil)

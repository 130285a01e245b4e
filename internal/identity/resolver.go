package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/numen-ops/easytime/internal/shared"
)

var (
	// ErrUnauthenticated indicates no valid session credential.
	ErrUnauthenticated = errors.New("identity: unauthenticated")
	// ErrUserRecordNotFound indicates a valid credential whose user
	// row no longer exists.
	ErrUserRecordNotFound = errors.New("identity: user record not found")
)

// RepositoryPort defines data access for identity resolution.
type RepositoryPort interface {
	GetUser(ctx context.Context, id int64) (*Identity, error)
}

// Resolver turns a session into a fully populated Identity with a
// single read of the user store. It runs once per request, in the
// route guard; handlers consume the threaded snapshot.
type Resolver struct {
	repo RepositoryPort
}

// NewResolver constructs a Resolver.
func NewResolver(repo RepositoryPort) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve loads the Identity for the session's user.
func (r *Resolver) Resolve(ctx context.Context, sess *shared.Session) (*Identity, error) {
	if sess == nil {
		return nil, ErrUnauthenticated
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return nil, ErrUnauthenticated
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	id, err := r.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrUserRecordNotFound
		}
		return nil, err
	}
	return id, nil
}

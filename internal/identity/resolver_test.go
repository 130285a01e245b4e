package identity_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/shared"
	_ "github.com/numen-ops/easytime/testing"
)

type stubRepo struct {
	users map[int64]identity.Identity
	err   error
}

func (s *stubRepo) GetUser(ctx context.Context, id int64) (*identity.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func newSession(t *testing.T) (*shared.SessionManager, *shared.Session) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sm := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return sm, sess
}

func TestResolveWithoutSession(t *testing.T) {
	r := identity.NewResolver(&stubRepo{})
	if _, err := r.Resolve(context.Background(), nil); !errors.Is(err, identity.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestResolveEmptyAndMalformedUser(t *testing.T) {
	r := identity.NewResolver(&stubRepo{})
	_, sess := newSession(t)

	if _, err := r.Resolve(context.Background(), sess); !errors.Is(err, identity.ErrUnauthenticated) {
		t.Fatalf("empty user: expected ErrUnauthenticated, got %v", err)
	}

	sess.SetUser("not-a-number")
	if _, err := r.Resolve(context.Background(), sess); !errors.Is(err, identity.ErrUnauthenticated) {
		t.Fatalf("malformed user: expected ErrUnauthenticated, got %v", err)
	}
}

func TestResolveMissingUserRecord(t *testing.T) {
	r := identity.NewResolver(&stubRepo{users: map[int64]identity.Identity{}})
	_, sess := newSession(t)
	sess.SetUser("7")

	if _, err := r.Resolve(context.Background(), sess); !errors.Is(err, identity.ErrUserRecordNotFound) {
		t.Fatalf("expected ErrUserRecordNotFound, got %v", err)
	}
}

func TestResolveHappyPath(t *testing.T) {
	want := identity.Identity{ID: 7, Email: "ana@numen.local", Role: identity.RoleManager, IsActive: true}
	r := identity.NewResolver(&stubRepo{users: map[int64]identity.Identity{7: want}})
	_, sess := newSession(t)
	sess.SetUser("7")

	got, err := r.Resolve(context.Background(), sess)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != want.ID || got.Email != want.Email || got.Role != want.Role {
		t.Fatalf("got %+v", got)
	}
}

func TestResolvePropagatesRepositoryErrors(t *testing.T) {
	dbErr := errors.New("connection refused")
	r := identity.NewResolver(&stubRepo{err: dbErr})
	_, sess := newSession(t)
	sess.SetUser("7")

	_, err := r.Resolve(context.Background(), sess)
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected repository error, got %v", err)
	}
	if errors.Is(err, identity.ErrUnauthenticated) {
		t.Fatal("repository errors must stay distinct from unauthenticated")
	}
}

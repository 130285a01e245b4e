package guard_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/numen-ops/easytime/internal/guard"
	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/policy"
	"github.com/numen-ops/easytime/internal/shared"
	_ "github.com/numen-ops/easytime/testing"
)

type stubResolver struct {
	id  *identity.Identity
	err error
}

func (s stubResolver) Resolve(ctx context.Context, sess *shared.Session) (*identity.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.id, nil
}

func newSessionManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func runGuard(t *testing.T, resolver guard.ResolverPort, path string) (*httptest.ResponseRecorder, bool, *identity.Identity) {
	t.Helper()
	sm := newSessionManager(t)

	var reached bool
	var seen *identity.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		seen = identity.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	m := guard.Middleware{Resolver: resolver, Policy: policy.Default(), Sessions: sm}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	sess, err := sm.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()
	m.Handler(next).ServeHTTP(res, req)
	return res, reached, seen
}

func activeIdentity(role identity.Role, isClient bool) *identity.Identity {
	partner := int64(4)
	id := &identity.Identity{ID: 1, Role: role, IsClient: isClient, IsActive: true}
	if isClient {
		id.PartnerID = &partner
	}
	return id
}

func TestAlwaysAllowedBypassesResolution(t *testing.T) {
	for _, path := range []string{"/", "/acesso-restrito", "/auth/update-password"} {
		res, reached, _ := runGuard(t, stubResolver{err: errors.New("must not be called")}, path)
		if !reached {
			t.Fatalf("path %s should reach handler, got status %d", path, res.Code)
		}
	}
}

func TestAuthPrefixRedirectsToLanding(t *testing.T) {
	res, reached, _ := runGuard(t, stubResolver{id: activeIdentity(identity.RoleAdmin, false)}, "/auth/anything")
	if reached {
		t.Fatal("handler should not be reached")
	}
	if res.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %s", loc)
	}
}

func TestUnresolvedIdentityFailsOpen(t *testing.T) {
	res, reached, seen := runGuard(t, stubResolver{err: identity.ErrUnauthenticated}, "/main/admin")
	if !reached {
		t.Fatalf("expected pass-through, got status %d", res.Code)
	}
	if seen != nil {
		t.Fatal("no identity should be threaded on fail-open")
	}
}

func TestResolverErrorFailsOpen(t *testing.T) {
	_, reached, seen := runGuard(t, stubResolver{err: errors.New("db down")}, "/main")
	if !reached {
		t.Fatal("expected pass-through on resolver error")
	}
	if seen != nil {
		t.Fatal("no identity should be threaded on resolver error")
	}
}

func TestInactiveUserIsRedirectedEverywhere(t *testing.T) {
	id := activeIdentity(identity.RoleAdmin, false)
	id.IsActive = false
	for _, path := range []string{"/main", "/main/admin", "/main/smartcare"} {
		res, reached, _ := runGuard(t, stubResolver{id: id}, path)
		if reached {
			t.Fatalf("inactive user reached %s", path)
		}
		if res.Code != http.StatusFound || res.Header().Get("Location") != "/" {
			t.Fatalf("path %s: got status %d location %s", path, res.Code, res.Header().Get("Location"))
		}
	}
}

func TestHiddenPathRedirectsToDeniedPage(t *testing.T) {
	clientManager := activeIdentity(identity.RoleManager, true)
	res, reached, _ := runGuard(t, stubResolver{id: clientManager}, "/main/admin")
	if reached {
		t.Fatal("client manager reached the admin section")
	}
	if res.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/acesso-restrito" {
		t.Fatalf("expected denied page, got %s", loc)
	}
}

func TestAllowedPathThreadsIdentity(t *testing.T) {
	admin := activeIdentity(identity.RoleAdmin, false)
	res, reached, seen := runGuard(t, stubResolver{id: admin}, "/main/admin")
	if !reached {
		t.Fatalf("expected handler, got status %d", res.Code)
	}
	if seen == nil || seen.ID != admin.ID {
		t.Fatalf("identity not threaded: %+v", seen)
	}
}

func TestClientAdminBlockedFromRegistrations(t *testing.T) {
	clientAdmin := activeIdentity(identity.RoleAdmin, true)

	_, reached, _ := runGuard(t, stubResolver{id: clientAdmin}, "/main/admin")
	if !reached {
		t.Fatal("client admin should reach the admin section root")
	}

	res, reached, _ := runGuard(t, stubResolver{id: clientAdmin}, "/main/admin/users")
	if reached {
		t.Fatal("client admin reached the user registration page")
	}
	if loc := res.Header().Get("Location"); loc != "/acesso-restrito" {
		t.Fatalf("expected denied page, got %s", loc)
	}
}

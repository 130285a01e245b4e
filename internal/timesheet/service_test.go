package timesheet

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/platform/httpx"
)

type memoryRepo struct {
	entries  map[int64]Entry
	partners map[int64]int64
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{entries: make(map[int64]Entry), partners: make(map[int64]int64)}
}

func (r *memoryRepo) add(e Entry) Entry {
	r.nextID++
	e.ID = r.nextID
	r.entries[e.ID] = e
	return e
}

func (r *memoryRepo) ListEntries(ctx context.Context, scope identity.Scope, year int, month time.Month) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if e.WorkedOn.Year() != year || e.WorkedOn.Month() != month {
			continue
		}
		switch scope.Kind {
		case identity.ScopePartner:
			if r.partners[e.UserID] != scope.PartnerID {
				continue
			}
		case identity.ScopeSelf:
			if e.UserID != scope.UserID {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memoryRepo) GetEntry(ctx context.Context, id int64) (*Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: apontamento %d", httpx.ErrNotFound, id)
	}
	return &e, nil
}

func (r *memoryRepo) CreateEntry(ctx context.Context, userID, projectID int64, workedOn time.Time, minutes int, note string) (*Entry, error) {
	e := r.add(Entry{UserID: userID, ProjectID: projectID, WorkedOn: workedOn, Minutes: minutes, Note: note})
	return &e, nil
}

func (r *memoryRepo) UpdateEntry(ctx context.Context, id int64, minutes int, note string) (*Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: apontamento %d", httpx.ErrNotFound, id)
	}
	e.Minutes = minutes
	e.Note = note
	r.entries[id] = e
	return &e, nil
}

func (r *memoryRepo) DeleteEntry(ctx context.Context, id int64) error {
	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("%w: apontamento %d", httpx.ErrNotFound, id)
	}
	delete(r.entries, id)
	return nil
}

func (r *memoryRepo) SumByProject(ctx context.Context, userID int64, year int, month time.Month) ([]ProjectTotal, error) {
	byProject := make(map[int64]int)
	for _, e := range r.entries {
		if e.UserID != userID || e.WorkedOn.Year() != year || e.WorkedOn.Month() != month {
			continue
		}
		byProject[e.ProjectID] += e.Minutes
	}
	var out []ProjectTotal
	for pid, minutes := range byProject {
		out = append(out, ProjectTotal{ProjectID: pid, ProjectName: fmt.Sprintf("Projeto %d", pid), Minutes: minutes})
	}
	return out, nil
}

func (r *memoryRepo) SumByDay(ctx context.Context, userID int64, year int, month time.Month) ([]DayTotal, error) {
	byDay := make(map[time.Time]int)
	for _, e := range r.entries {
		if e.UserID != userID || e.WorkedOn.Year() != year || e.WorkedOn.Month() != month {
			continue
		}
		byDay[e.WorkedOn] += e.Minutes
	}
	var out []DayTotal
	for day, minutes := range byDay {
		out = append(out, DayTotal{Day: day, Minutes: minutes})
	}
	return out, nil
}

func staff(id int64, role identity.Role) identity.Identity {
	return identity.Identity{ID: id, Role: role, IsActive: true}
}

func day(d int) time.Time {
	return time.Date(2026, time.July, d, 0, 0, 0, 0, time.UTC)
}

func TestClientsCannotTouchTimesheets(t *testing.T) {
	svc := NewService(newMemoryRepo())
	partner := int64(3)
	client := identity.Identity{ID: 9, Role: identity.RoleManager, IsClient: true, PartnerID: &partner, IsActive: true}
	ctx := context.Background()

	_, err := svc.ListEntries(ctx, client, 2026, time.July)
	require.ErrorIs(t, err, httpx.ErrForbidden)
	_, err = svc.CreateEntry(ctx, client, 1, day(1), 60, "")
	require.ErrorIs(t, err, httpx.ErrForbidden)
	_, err = svc.MonthlySummary(ctx, client, 2026, time.July)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestCreateEntryValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	caller := staff(1, identity.RoleFunctional)

	_, err := svc.CreateEntry(ctx, caller, 1, day(1), 0, "")
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateEntry(ctx, caller, 1, day(1), 25*60, "")
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateEntry(ctx, caller, 1, time.Now().AddDate(0, 1, 0), 60, "")
	require.ErrorIs(t, err, httpx.ErrValidation)

	entry, err := svc.CreateEntry(ctx, caller, 1, day(1), 480, "desenvolvimento")
	require.NoError(t, err)
	require.Equal(t, 480, entry.Minutes)
}

func TestOnlyOwnerEditsEntry(t *testing.T) {
	repo := newMemoryRepo()
	entry := repo.add(Entry{UserID: 1, ProjectID: 2, WorkedOn: day(3), Minutes: 60})
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.UpdateEntry(ctx, staff(2, identity.RoleFunctional), entry.ID, 90, "")
	require.ErrorIs(t, err, httpx.ErrForbidden)

	err = svc.DeleteEntry(ctx, staff(2, identity.RoleFunctional), entry.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	updated, err := svc.UpdateEntry(ctx, staff(1, identity.RoleFunctional), entry.ID, 90, "revisado")
	require.NoError(t, err)
	require.Equal(t, 90, updated.Minutes)

	require.NoError(t, svc.DeleteEntry(ctx, staff(1, identity.RoleFunctional), entry.ID))
}

func TestManagerSeesPartnerEntries(t *testing.T) {
	repo := newMemoryRepo()
	repo.partners[1] = 3
	repo.partners[2] = 3
	repo.partners[5] = 9
	repo.add(Entry{UserID: 1, ProjectID: 1, WorkedOn: day(1), Minutes: 60})
	repo.add(Entry{UserID: 2, ProjectID: 1, WorkedOn: day(2), Minutes: 120})
	repo.add(Entry{UserID: 5, ProjectID: 1, WorkedOn: day(2), Minutes: 45})
	svc := NewService(repo)
	ctx := context.Background()

	partner := int64(3)
	manager := identity.Identity{ID: 1, Role: identity.RoleManager, PartnerID: &partner, IsActive: true}
	entries, err := svc.ListEntries(ctx, manager, 2026, time.July)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// A functional member of the same partner only sees their own rows.
	functional := identity.Identity{ID: 2, Role: identity.RoleFunctional, PartnerID: &partner, IsActive: true}
	entries, err = svc.ListEntries(ctx, functional, 2026, time.July)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.EqualValues(t, 2, entries[0].UserID)
}

func TestMonthlySummaryAggregates(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(Entry{UserID: 1, ProjectID: 10, WorkedOn: day(1), Minutes: 90})
	repo.add(Entry{UserID: 1, ProjectID: 10, WorkedOn: day(2), Minutes: 30})
	repo.add(Entry{UserID: 1, ProjectID: 11, WorkedOn: day(1), Minutes: 60})
	repo.add(Entry{UserID: 2, ProjectID: 10, WorkedOn: day(1), Minutes: 999})
	repo.add(Entry{UserID: 1, ProjectID: 10, WorkedOn: time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC), Minutes: 777})
	svc := NewService(repo)

	summary, err := svc.MonthlySummary(context.Background(), staff(1, identity.RoleFunctional), 2026, time.July)
	require.NoError(t, err)
	require.Equal(t, 2026, summary.Year)
	require.Equal(t, time.July, summary.Month)
	require.Equal(t, 180, summary.TotalMinutes)
	require.Len(t, summary.ByProject, 2)
	require.Len(t, summary.ByDay, 2)

	dayTotal := 0
	for _, d := range summary.ByDay {
		dayTotal += d.Minutes
	}
	require.Equal(t, summary.TotalMinutes, dayTotal)
}

func TestMonthlySummaryValidatesPeriod(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.MonthlySummary(context.Background(), staff(1, identity.RoleManager), 1990, time.July)
	require.ErrorIs(t, err, httpx.ErrValidation)
	_, err = svc.MonthlySummary(context.Background(), staff(1, identity.RoleManager), 2026, time.Month(13))
	require.ErrorIs(t, err, httpx.ErrValidation)
}

package mealtime

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/samuelitis/seniorBuddy-api-server/internal/domain"
	"github.com/samuelitis/seniorBuddy-api-server/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.SQLiteRepo) {
	t.Helper()
	repo, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"), time.UTC)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return New(repo, zap.NewNop()), repo
}

func seedUser(t *testing.T, repo *store.SQLiteRepo) *domain.User {
	t.Helper()
	u := domain.NewUser("김영희", "010-1234-5678")
	if err := repo.UpsertUser(context.Background(), u); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	return u
}

func TestAdjustFirstCallDefaults(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	u := seedUser(t, repo)

	res, err := svc.Adjust(ctx, u.ID, domain.MealLunch, domain.EatenEarly, 0)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if !res.Defaulted {
		t.Fatal("first call should install the defaults")
	}
	// The freshly installed defaults are returned unshifted.
	if res.Schedule.Lunch.String() != "12:00" {
		t.Fatalf("lunch = %s, want 12:00", res.Schedule.Lunch)
	}
}

func TestAdjustShiftsAndPersists(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	u := seedUser(t, repo)

	if _, err := svc.Ensure(ctx, u.ID); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	res, err := svc.Adjust(ctx, u.ID, domain.MealLunch, domain.EatenEarly, 0)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if res.Defaulted {
		t.Fatal("schedule already existed, should not default")
	}
	if res.Schedule.Lunch.String() != "11:50" {
		t.Fatalf("lunch = %s, want 11:50", res.Schedule.Lunch)
	}

	// The shift survives a reload.
	sched, err := repo.GetMealSchedule(ctx, u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if sched.Lunch.String() != "11:50" {
		t.Fatalf("persisted lunch = %s, want 11:50", sched.Lunch)
	}
}

func TestAdjustExplicitMinutes(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	u := seedUser(t, repo)

	if _, err := svc.Ensure(ctx, u.ID); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	res, err := svc.Adjust(ctx, u.ID, domain.MealDinner, domain.EatenLate, 25)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if res.Schedule.Dinner.String() != "18:25" {
		t.Fatalf("dinner = %s, want 18:25", res.Schedule.Dinner)
	}
}

func TestAdjustUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Adjust(context.Background(), 9999, domain.MealLunch, domain.EatenEarly, 0)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected store.ErrNotFound, got %v", err)
	}
}

func TestAdjustInvalidSlot(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	u := seedUser(t, repo)

	if _, err := svc.Ensure(ctx, u.ID); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	if _, err := svc.Adjust(ctx, u.ID, "brunch", domain.EatenEarly, 0); !errors.Is(err, domain.ErrUnknownMealSlot) {
		t.Fatalf("expected ErrUnknownMealSlot, got %v", err)
	}
}

// Package mealtime manages per-user meal schedules: lazy creation with
// defaults and adaptive anchor adjustment driven by observed behavior.
package mealtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/samuelitis/seniorBuddy-api-server/internal/domain"
	"github.com/samuelitis/seniorBuddy-api-server/internal/store"
)

// DefaultAdjustMinutes is how far one adjustment call nudges an anchor.
const DefaultAdjustMinutes = 10

// Service wraps the meal-schedule portion of the store.
type Service struct {
	repo store.Repo
	log  *zap.Logger
}

// New creates a meal-schedule service.
func New(repo store.Repo, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// AdjustResult distinguishes a real adjustment from the first-call case
// where no schedule existed yet and the defaults were installed instead.
type AdjustResult struct {
	Schedule  *domain.MealSchedule
	Defaulted bool
}

// Ensure returns the user's schedule, creating the defaults if absent.
func (s *Service) Ensure(ctx context.Context, userID int64) (*domain.MealSchedule, error) {
	sched, created, err := s.repo.EnsureMealSchedule(ctx, userID)
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("meal schedule defaulted", zap.Int64("userID", userID))
	}
	return sched, nil
}

// Adjust nudges one anchor by minutes in the given direction. When the user
// has no schedule yet, the defaults are installed and returned unshifted
// with Defaulted set; the caller is expected to tell the user their
// schedule was just initialized. Minutes <= 0 falls back to the default.
func (s *Service) Adjust(ctx context.Context, userID int64, slot domain.MealSlot, dir domain.AdjustDirection, minutes int) (*AdjustResult, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	if minutes <= 0 {
		minutes = DefaultAdjustMinutes
	}

	sched, created, err := s.repo.EnsureMealSchedule(ctx, userID)
	if err != nil {
		return nil, err
	}
	if created {
		return &AdjustResult{Schedule: sched, Defaulted: true}, nil
	}

	if err := sched.Shift(slot, dir, minutes); err != nil {
		return nil, err
	}
	if err := s.repo.SaveMealSchedule(ctx, sched); err != nil {
		return nil, err
	}
	s.log.Info("meal anchor adjusted",
		zap.Int64("userID", userID),
		zap.String("slot", string(slot)),
		zap.String("direction", string(dir)),
		zap.Int("minutes", minutes),
	)
	return &AdjustResult{Schedule: sched}, nil
}

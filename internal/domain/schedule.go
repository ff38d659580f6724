package domain

import (
	"errors"
	"fmt"
	"time"
)

// MealSlot identifies one adjustable anchor of a meal schedule.
type MealSlot string

const (
	MealMorning   MealSlot = "morning"
	MealBreakfast MealSlot = "breakfast"
	MealLunch     MealSlot = "lunch"
	MealDinner    MealSlot = "dinner"
	MealBedtime   MealSlot = "bedtime"
)

// AdjustDirection tells which way an anchor drifts: the user ate earlier or
// later than the schedule says.
type AdjustDirection string

const (
	EatenEarly AdjustDirection = "eaten_early"
	EatenLate  AdjustDirection = "eaten_late"
)

var (
	ErrUnknownMealSlot  = errors.New("unknown meal slot")
	ErrUnknownDirection = errors.New("unknown adjust direction")
)

// MealSchedule is a user's personal anchor clock, one row per user.
type MealSchedule struct {
	UserID    int64
	Morning   Clock
	Breakfast Clock
	Lunch     Clock
	Dinner    Clock
	Bedtime   Clock
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultMealSchedule returns the fixed defaults used on lazy creation.
func DefaultMealSchedule(userID int64) *MealSchedule {
	now := time.Now().UTC()
	return &MealSchedule{
		UserID:    userID,
		Morning:   NewClock(7, 0),
		Breakfast: NewClock(8, 0),
		Lunch:     NewClock(12, 0),
		Dinner:    NewClock(18, 0),
		Bedtime:   NewClock(22, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *MealSchedule) anchor(slot MealSlot) (*Clock, error) {
	switch slot {
	case MealMorning:
		return &s.Morning, nil
	case MealBreakfast:
		return &s.Breakfast, nil
	case MealLunch:
		return &s.Lunch, nil
	case MealDinner:
		return &s.Dinner, nil
	case MealBedtime:
		return &s.Bedtime, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMealSlot, slot)
	}
}

// Anchor returns the time-of-day anchor for the given slot.
func (s *MealSchedule) Anchor(slot MealSlot) (Clock, error) {
	c, err := s.anchor(slot)
	if err != nil {
		return 0, err
	}
	return *c, nil
}

// Shift nudges one anchor by minutes in the given direction.
func (s *MealSchedule) Shift(slot MealSlot, dir AdjustDirection, minutes int) error {
	delta := minutes
	switch dir {
	case EatenEarly:
		delta = -minutes
	case EatenLate:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDirection, dir)
	}
	c, err := s.anchor(slot)
	if err != nil {
		return err
	}
	shifted, err := c.Offset(delta)
	if err != nil {
		return err
	}
	*c = shifted
	s.UpdatedAt = time.Now().UTC()
	return nil
}

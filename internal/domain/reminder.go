package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmptyContent    = errors.New("empty content")
	ErrUnknownDuration = errors.New("unknown duration keyword")
	ErrNoDoseSelected  = errors.New("no dose slot selected")
)

// durationDays maps the duration keywords accepted at creation to the number
// of days added to the start date to obtain the inclusive end date.
var durationDays = map[string]int{
	"3일":    3,
	"7일":    7,
	"2주":    14,
	"1개월":   30,
	"2개월":   60,
	"3개월":   90,
	"1년":    365,
	"1년 이상": 365,
}

// DurationDays resolves a duration keyword to its day count.
func DurationDays(keyword string) (int, error) {
	d, ok := durationDays[strings.TrimSpace(keyword)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDuration, keyword)
	}
	return d, nil
}

// DoseSet holds the eight dose-slot flags of a medication reminder.
// "Before"/"After" name when the dose is taken relative to the meal, not
// when the notification fires: an after-meal dose is announced 40 minutes
// ahead of the meal anchor, a before-meal dose 20 minutes past it.
type DoseSet struct {
	Morning         bool
	BreakfastBefore bool
	BreakfastAfter  bool
	LunchBefore     bool
	LunchAfter      bool
	DinnerBefore    bool
	DinnerAfter     bool
	Bedtime         bool
}

// Any reports whether at least one slot is selected.
func (d DoseSet) Any() bool {
	return d.Morning || d.BreakfastBefore || d.BreakfastAfter ||
		d.LunchBefore || d.LunchAfter ||
		d.DinnerBefore || d.DinnerAfter || d.Bedtime
}

// MedicationReminder is a recurring drug regimen active on every day of
// [StartDate, EndDate] inclusive.
type MedicationReminder struct {
	ID             int64
	UserID         int64
	Content        string
	StartDate      time.Time // local midnight
	EndDate        time.Time // local midnight, inclusive
	Doses          DoseSet
	AdditionalInfo string
	CreatedAt      time.Time
}

// NewMedicationReminder validates the input and computes the end date from
// the duration keyword.
func NewMedicationReminder(userID int64, content string, startDate time.Time, duration string, doses DoseSet, info string) (*MedicationReminder, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	days, err := DurationDays(duration)
	if err != nil {
		return nil, err
	}
	if !doses.Any() {
		return nil, ErrNoDoseSelected
	}
	start := Midnight(startDate)
	return &MedicationReminder{
		UserID:         userID,
		Content:        content,
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, days),
		Doses:          doses,
		AdditionalInfo: info,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// ActiveOn reports whether the regimen covers the given day.
func (r *MedicationReminder) ActiveOn(day time.Time) bool {
	d := Midnight(day)
	return !d.Before(r.StartDate) && !d.After(r.EndDate)
}

// MedicationPatch carries a partial update; nil fields are left untouched.
type MedicationPatch struct {
	Content        *string
	StartDate      *time.Time
	Duration       *string
	Doses          *DoseSet
	AdditionalInfo *string
}

// Apply merges the patch into the reminder. Moving the start date shifts the
// end date by the same amount; a duration keyword recomputes the end date
// from the (possibly updated) start date.
func (r *MedicationReminder) Apply(p MedicationPatch) error {
	if p.Content != nil {
		c := strings.TrimSpace(*p.Content)
		if c == "" {
			return ErrEmptyContent
		}
		r.Content = c
	}
	if p.StartDate != nil {
		// The regimen length travels with the start date, so the range
		// never inverts.
		span := int(r.EndDate.Sub(r.StartDate).Hours()/24 + 0.5)
		r.StartDate = Midnight(*p.StartDate)
		r.EndDate = r.StartDate.AddDate(0, 0, span)
	}
	if p.Duration != nil {
		days, err := DurationDays(*p.Duration)
		if err != nil {
			return err
		}
		r.EndDate = r.StartDate.AddDate(0, 0, days)
	}
	if p.Doses != nil {
		if !p.Doses.Any() {
			return ErrNoDoseSelected
		}
		r.Doses = *p.Doses
	}
	if p.AdditionalInfo != nil {
		r.AdditionalInfo = *p.AdditionalInfo
	}
	return nil
}

// HospitalReminder is a single scheduled appointment, active only on its
// exact start date.
type HospitalReminder struct {
	ID             int64
	UserID         int64
	Content        string
	StartDate      time.Time // appointment day, local midnight
	ReminderTime   Clock     // appointment time of day
	AdditionalInfo string
	CreatedAt      time.Time
}

// NewHospitalReminder splits the appointment instant into a day and a time
// of day, mirroring how the reminder is stored and expanded.
func NewHospitalReminder(userID int64, content string, at time.Time, info string) (*HospitalReminder, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	return &HospitalReminder{
		UserID:         userID,
		Content:        content,
		StartDate:      Midnight(at),
		ReminderTime:   NewClock(at.Hour(), at.Minute()),
		AdditionalInfo: info,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// HospitalPatch carries a partial update; nil fields are left untouched.
type HospitalPatch struct {
	Content        *string
	At             *time.Time
	AdditionalInfo *string
}

// Apply merges the patch into the reminder.
func (r *HospitalReminder) Apply(p HospitalPatch) error {
	if p.Content != nil {
		c := strings.TrimSpace(*p.Content)
		if c == "" {
			return ErrEmptyContent
		}
		r.Content = c
	}
	if p.At != nil {
		r.StartDate = Midnight(*p.At)
		r.ReminderTime = NewClock(p.At.Hour(), p.At.Minute())
	}
	if p.AdditionalInfo != nil {
		r.AdditionalInfo = *p.AdditionalInfo
	}
	return nil
}

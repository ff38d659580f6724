// Package expand implements the daily expansion engine: it converts the
// reminders active on a calendar day into concrete, deduplicated scheduled
// messages, one fresh batch per day.
package expand

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/samuelitis/seniorBuddy-api-server/internal/domain"
	"github.com/samuelitis/seniorBuddy-api-server/internal/store"
)

// hospitalLeadMinutes is how far ahead of the appointment the notification fires.
const hospitalLeadMinutes = 60

// doseSlot binds one dose flag to its meal anchor, trigger offset and phrase
// template. The offsets are asymmetric on purpose: an after-meal dose is
// announced 40 minutes ahead of the meal, a before-meal dose 20 minutes
// past it, bedtime 30 minutes ahead.
type doseSlot struct {
	name     string
	selected func(domain.DoseSet) bool
	anchor   func(*domain.MealSchedule) domain.Clock
	offset   int
	template string
}

var doseSlots = []doseSlot{
	{
		name:     "morning",
		selected: func(d domain.DoseSet) bool { return d.Morning },
		anchor:   func(s *domain.MealSchedule) domain.Clock { return s.Morning },
		offset:   0,
		template: "좋은 아침입니다. %s 드셔야해요",
	},
	{
		name:     "breakfast_after",
		selected: func(d domain.DoseSet) bool { return d.BreakfastAfter },
		anchor:   func(s *domain.MealSchedule) domain.Clock { return s.Breakfast },
		offset:   -40,
		template: "아침 식사 30분 전에 %s 드셔야해요",
	},
	{
		name:     "breakfast_before",
		selected: func(d domain.DoseSet) bool { return d.BreakfastBefore },
		anchor:   func(s *domain.MealSchedule) domain.Clock { return s.Breakfast },
		offset:   20,
		template: "아침 식사 30분이 지난거같네요. %s 드셔야해요",
	},
	{
		name:     "lunch_after",
		selected: func(d domain.DoseSet) bool { return d.LunchAfter },
		anchor:   func(s *domain.MealSchedule) domain.Clock { return s.Lunch },
		offset:   -40,
		template: "점심 식사 30분 전에 %s 드셔야해요",
	},
	{
		name:     "lunch_before",
		selected: func(d domain.DoseSet) bool { return d.LunchBefore },
		anchor:   func(s *domain.MealSchedule) domain.Clock { return s.Lunch },
		offset:   20,
		template: "점심 식사 30분이 지난거같네요. %s 드셔야해요",
	},
	{
		name:     "dinner_after",
		selected: func(d domain.DoseSet) bool { return d.DinnerAfter },
		anchor:   func(s *domain.MealSchedule) domain.Clock { return s.Dinner },
		offset:   -40,
		template: "저녁 식사 30분 전에 %s 드셔야해요",
	},
	{
		name:     "dinner_before",
		selected: func(d domain.DoseSet) bool { return d.DinnerBefore },
		anchor:   func(s *domain.MealSchedule) domain.Clock { return s.Dinner },
		offset:   20,
		template: "저녁 식사 30분이 지난거같네요. %s 드셔야해요",
	},
	{
		name:     "bedtime",
		selected: func(d domain.DoseSet) bool { return d.Bedtime },
		anchor:   func(s *domain.MealSchedule) domain.Clock { return s.Bedtime },
		offset:   -30,
		template: "주무시기 전에 %s 드셔야해요",
	},
}

// Engine expands reminders into scheduled messages for one day at a time.
type Engine struct {
	repo store.Repo
	log  *zap.Logger
	loc  *time.Location
}

// New creates an expansion engine operating in the given local zone.
func New(repo store.Repo, log *zap.Logger, loc *time.Location) *Engine {
	return &Engine{repo: repo, log: log, loc: loc}
}

// Run rebuilds the scheduled messages for the given calendar day. The day's
// previous batch is deleted first, so re-running is idempotent. One user's
// failure is logged and skipped; it never blocks the other users.
func (e *Engine) Run(ctx context.Context, day time.Time) error {
	day = domain.Midnight(day.In(e.loc))
	next := day.AddDate(0, 0, 1)

	if err := e.repo.DeleteMessagesBetween(ctx, day, next); err != nil {
		return fmt.Errorf("clear day %s: %w", day.Format("2006-01-02"), err)
	}

	users, err := e.repo.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var written, failed int
	for i := range users {
		u := &users[i]
		// No registered device means nothing to deliver to.
		if u.Destination == nil {
			continue
		}
		batch, err := e.expandUser(ctx, u.ID, day)
		if err != nil {
			e.log.Error("expand user failed", zap.Int64("userID", u.ID), zap.Error(err))
			failed++
			continue
		}
		if len(batch) == 0 {
			continue
		}
		if err := e.repo.InsertMessages(ctx, batch); err != nil {
			e.log.Error("persist batch failed", zap.Int64("userID", u.ID), zap.Error(err))
			failed++
			continue
		}
		written += len(batch)
	}

	e.log.Info("daily expansion finished",
		zap.String("day", day.Format("2006-01-02")),
		zap.Int("users", len(users)),
		zap.Int("messages", written),
		zap.Int("failedUsers", failed),
	)
	return nil
}

// candidate is one not-yet-merged notification.
type candidate struct {
	title   string
	content string
	at      time.Time
}

func (e *Engine) expandUser(ctx context.Context, userID int64, day time.Time) ([]domain.ScheduledMessage, error) {
	sched, _, err := e.repo.EnsureMealSchedule(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ensure meal schedule: %w", err)
	}

	meds, err := e.repo.ListActiveMedicationReminders(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("list active medication reminders: %w", err)
	}

	var cands []candidate
	for _, slot := range doseSlots {
		var contents []string
		seen := make(map[string]bool)
		for i := range meds {
			m := &meds[i]
			if !slot.selected(m.Doses) || seen[m.Content] {
				continue
			}
			seen[m.Content] = true
			contents = append(contents, m.Content)
		}
		if len(contents) == 0 {
			continue
		}
		at, err := slot.anchor(sched).Offset(slot.offset)
		if err != nil {
			e.log.Warn("dose slot falls outside the day, skipped",
				zap.Int64("userID", userID),
				zap.String("slot", slot.name),
				zap.Error(err),
			)
			continue
		}
		cands = append(cands, candidate{
			title:   medicationTitle,
			content: fmt.Sprintf(slot.template, strings.Join(contents, ", ")),
			at:      at.At(day),
		})
	}

	hosps, err := e.repo.ListHospitalRemindersOn(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("list hospital reminders: %w", err)
	}
	for i := range hosps {
		h := &hosps[i]
		at, err := h.ReminderTime.Offset(-hospitalLeadMinutes)
		if err != nil {
			// Appointment less than an hour after midnight. Fire at the
			// start of the day instead of spilling into the previous one,
			// which the daily rebuild would never clear.
			e.log.Warn("hospital trigger clamped to midnight",
				zap.Int64("userID", userID),
				zap.Int64("reminderID", h.ID),
				zap.String("appointment", h.ReminderTime.String()),
			)
			at = 0
		}
		cands = append(cands, candidate{
			title:   hospitalTitle,
			content: hospitalBody(h.ReminderTime, h.Content, h.AdditionalInfo),
			at:      at.At(day),
		})
	}

	return merge(userID, cands), nil
}

// merge folds candidates sharing an exact trigger instant into a single
// message, deduplicating bodies by exact text, and orders the batch by time.
// The title of the first candidate in a group wins.
func merge(userID int64, cands []candidate) []domain.ScheduledMessage {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].at.Before(cands[j].at) })

	now := time.Now().UTC()
	var out []domain.ScheduledMessage
	for i := 0; i < len(cands); {
		seen := make(map[string]bool)
		var parts []string
		j := i
		for ; j < len(cands) && cands[j].at.Equal(cands[i].at); j++ {
			if seen[cands[j].content] {
				continue
			}
			seen[cands[j].content] = true
			parts = append(parts, cands[j].content)
		}
		out = append(out, domain.ScheduledMessage{
			UserID:        userID,
			Title:         cands[i].title,
			Content:       strings.Join(parts, ", "),
			ScheduledTime: cands[i].at,
			Status:        domain.StatusPending,
			CreatedAt:     now,
		})
		i = j
	}
	return out
}

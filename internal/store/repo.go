package store

import (
	"context"
	"errors"
	"time"

	"github.com/samuelitis/seniorBuddy-api-server/internal/domain"
)

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

// Repo defines storage operations for users, meal schedules, reminders and
// scheduled messages. All reminder operations are scoped by the owning user.
type Repo interface {
	// Users.
	UpsertUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, userID int64) error

	// Meal schedules (one row per user).
	GetMealSchedule(ctx context.Context, userID int64) (*domain.MealSchedule, error)
	// EnsureMealSchedule returns the user's schedule, creating the defaults
	// if absent. The bool reports whether a row was created by this call.
	EnsureMealSchedule(ctx context.Context, userID int64) (*domain.MealSchedule, bool, error)
	SaveMealSchedule(ctx context.Context, s *domain.MealSchedule) error

	// Medication reminders.
	CreateMedicationReminder(ctx context.Context, r *domain.MedicationReminder) error
	GetMedicationReminder(ctx context.Context, userID, reminderID int64) (*domain.MedicationReminder, error)
	ListMedicationReminders(ctx context.Context, userID int64) ([]domain.MedicationReminder, error)
	// ListActiveMedicationReminders returns regimens whose inclusive date
	// range covers the given day.
	ListActiveMedicationReminders(ctx context.Context, userID int64, day time.Time) ([]domain.MedicationReminder, error)
	UpdateMedicationReminder(ctx context.Context, r *domain.MedicationReminder) error
	DeleteMedicationReminder(ctx context.Context, userID, reminderID int64) error

	// Hospital reminders.
	CreateHospitalReminder(ctx context.Context, r *domain.HospitalReminder) error
	GetHospitalReminder(ctx context.Context, userID, reminderID int64) (*domain.HospitalReminder, error)
	ListHospitalReminders(ctx context.Context, userID int64) ([]domain.HospitalReminder, error)
	ListHospitalRemindersOn(ctx context.Context, userID int64, day time.Time) ([]domain.HospitalReminder, error)
	UpdateHospitalReminder(ctx context.Context, r *domain.HospitalReminder) error
	DeleteHospitalReminder(ctx context.Context, userID, reminderID int64) error

	// Scheduled messages.
	DeleteMessagesBetween(ctx context.Context, from, to time.Time) error
	// InsertMessages writes one user's batch in a single transaction; on
	// failure nothing from the batch is committed.
	InsertMessages(ctx context.Context, msgs []domain.ScheduledMessage) error
	ListMessagesBetween(ctx context.Context, userID int64, from, to time.Time) ([]domain.ScheduledMessage, error)
	// ListDueMessages returns up to limit pending messages with
	// scheduled_time <= now, ordered by scheduled_time ascending.
	ListDueMessages(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledMessage, error)
	SetMessageStatus(ctx context.Context, id int64, status domain.MessageStatus) error

	Close() error
}

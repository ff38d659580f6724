package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/samuelitis/seniorBuddy-api-server/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database. Calendar
// days are stored as YYYY-MM-DD strings and restored in loc.
type SQLiteRepo struct {
	db  *sql.DB
	loc *time.Location
}

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string, loc *time.Location) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	if loc == nil {
		loc = time.UTC
	}
	return &SQLiteRepo{db: db, loc: loc}, nil
}

// applyPragmas configures the SQLite connection for durability and
// concurrency. foreign_keys=ON makes user deletion cascade into schedules,
// reminders and scheduled messages.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// --- users ---

// UpsertUser inserts a new user or updates an existing one by id. New users
// get their generated id written back.
func (r *SQLiteRepo) UpsertUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}

	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	created := createdAt.UTC().Unix()

	if u.ID == 0 {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO users (user_uuid, real_name, phone_number, destination, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			u.UUID, u.RealName, u.PhoneNumber, toNullString(u.Destination), created,
		)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		u.ID = id
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET user_uuid = ?, real_name = ?, phone_number = ?, destination = ?
		WHERE user_id = ?`,
		u.UUID, u.RealName, u.PhoneNumber, toNullString(u.Destination), u.ID,
	)
	return err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u         domain.User
		dest      sql.NullString
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.UUID, &u.RealName, &u.PhoneNumber, &dest, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Destination = fromNullString(dest)
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// GetUser returns a user by id or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, user_uuid, real_name, phone_number, destination, created_at
		FROM users
		WHERE user_id = ?`,
		userID,
	)
	return scanUser(row)
}

// ListUsers returns every user, including those with no registered device.
func (r *SQLiteRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, user_uuid, real_name, phone_number, destination, created_at
		FROM users
		ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		var (
			u         domain.User
			dest      sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&u.ID, &u.UUID, &u.RealName, &u.PhoneNumber, &dest, &createdAt); err != nil {
			return nil, err
		}
		u.Destination = fromNullString(dest)
		u.CreatedAt = time.Unix(createdAt, 0).UTC()
		res = append(res, u)
	}
	return res, rows.Err()
}

// DeleteUser removes a user; schedules, reminders and messages cascade.
func (r *SQLiteRepo) DeleteUser(ctx context.Context, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// --- meal schedules ---

// GetMealSchedule returns the user's schedule or ErrNotFound.
func (r *SQLiteRepo) GetMealSchedule(ctx context.Context, userID int64) (*domain.MealSchedule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, morning_m, breakfast_m, lunch_m, dinner_m, bedtime_m, created_at, updated_at
		FROM user_schedule
		WHERE user_id = ?`,
		userID,
	)
	var (
		s                    domain.MealSchedule
		createdAt, updatedAt int64
	)
	if err := row.Scan(&s.UserID, &s.Morning, &s.Breakfast, &s.Lunch, &s.Dinner, &s.Bedtime, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	s.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &s, nil
}

// EnsureMealSchedule returns the user's schedule, lazily creating the
// defaults. INSERT OR IGNORE keeps concurrent callers from creating two rows.
func (r *SQLiteRepo) EnsureMealSchedule(ctx context.Context, userID int64) (*domain.MealSchedule, bool, error) {
	def := domain.DefaultMealSchedule(userID)
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_schedule
			(user_id, morning_m, breakfast_m, lunch_m, dinner_m, bedtime_m, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		def.UserID, def.Morning, def.Breakfast, def.Lunch, def.Dinner, def.Bedtime,
		def.CreatedAt.Unix(), def.UpdatedAt.Unix(),
	)
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	s, err := r.GetMealSchedule(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return s, n > 0, nil
}

// SaveMealSchedule writes the anchors and updated_at back.
func (r *SQLiteRepo) SaveMealSchedule(ctx context.Context, s *domain.MealSchedule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_schedule
		SET morning_m = ?, breakfast_m = ?, lunch_m = ?, dinner_m = ?, bedtime_m = ?, updated_at = ?
		WHERE user_id = ?`,
		s.Morning, s.Breakfast, s.Lunch, s.Dinner, s.Bedtime, s.UpdatedAt.UTC().Unix(), s.UserID,
	)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// --- medication reminders ---

const medicationCols = `reminder_id, user_id, content, start_date, end_date,
	dose_morning, dose_breakfast_before, dose_breakfast_after,
	dose_lunch_before, dose_lunch_after, dose_dinner_before, dose_dinner_after,
	dose_bedtime, additional_info, created_at`

// CreateMedicationReminder inserts a regimen and writes back the new id.
func (r *SQLiteRepo) CreateMedicationReminder(ctx context.Context, m *domain.MedicationReminder) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO medication_reminders (
			user_id, content, start_date, end_date,
			dose_morning, dose_breakfast_before, dose_breakfast_after,
			dose_lunch_before, dose_lunch_after, dose_dinner_before, dose_dinner_after,
			dose_bedtime, additional_info, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.UserID, m.Content, dayString(m.StartDate), dayString(m.EndDate),
		boolToInt(m.Doses.Morning), boolToInt(m.Doses.BreakfastBefore), boolToInt(m.Doses.BreakfastAfter),
		boolToInt(m.Doses.LunchBefore), boolToInt(m.Doses.LunchAfter),
		boolToInt(m.Doses.DinnerBefore), boolToInt(m.Doses.DinnerAfter),
		boolToInt(m.Doses.Bedtime), m.AdditionalInfo, m.CreatedAt.UTC().Unix(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepo) scanMedication(sc rowScanner) (*domain.MedicationReminder, error) {
	var (
		m          domain.MedicationReminder
		start, end string
		flags      [8]int
		createdAt  int64
	)
	err := sc.Scan(
		&m.ID, &m.UserID, &m.Content, &start, &end,
		&flags[0], &flags[1], &flags[2], &flags[3], &flags[4], &flags[5], &flags[6], &flags[7],
		&m.AdditionalInfo, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if m.StartDate, err = parseDay(start, r.loc); err != nil {
		return nil, err
	}
	if m.EndDate, err = parseDay(end, r.loc); err != nil {
		return nil, err
	}
	m.Doses = domain.DoseSet{
		Morning:         flags[0] != 0,
		BreakfastBefore: flags[1] != 0,
		BreakfastAfter:  flags[2] != 0,
		LunchBefore:     flags[3] != 0,
		LunchAfter:      flags[4] != 0,
		DinnerBefore:    flags[5] != 0,
		DinnerAfter:     flags[6] != 0,
		Bedtime:         flags[7] != 0,
	}
	m.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &m, nil
}

// GetMedicationReminder returns one regimen scoped by owner.
func (r *SQLiteRepo) GetMedicationReminder(ctx context.Context, userID, reminderID int64) (*domain.MedicationReminder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+medicationCols+`
		FROM medication_reminders
		WHERE reminder_id = ? AND user_id = ?`,
		reminderID, userID,
	)
	m, err := r.scanMedication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (r *SQLiteRepo) queryMedications(ctx context.Context, query string, args ...any) ([]domain.MedicationReminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.MedicationReminder
	for rows.Next() {
		m, err := r.scanMedication(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *m)
	}
	return res, rows.Err()
}

// ListMedicationReminders returns all of a user's regimens.
func (r *SQLiteRepo) ListMedicationReminders(ctx context.Context, userID int64) ([]domain.MedicationReminder, error) {
	return r.queryMedications(ctx, `
		SELECT `+medicationCols+`
		FROM medication_reminders
		WHERE user_id = ?
		ORDER BY reminder_id`,
		userID,
	)
}

// ListActiveMedicationReminders returns regimens active on the given day.
func (r *SQLiteRepo) ListActiveMedicationReminders(ctx context.Context, userID int64, day time.Time) ([]domain.MedicationReminder, error) {
	d := dayString(day)
	return r.queryMedications(ctx, `
		SELECT `+medicationCols+`
		FROM medication_reminders
		WHERE user_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY reminder_id`,
		userID, d, d,
	)
}

// UpdateMedicationReminder persists a modified regimen, scoped by owner.
func (r *SQLiteRepo) UpdateMedicationReminder(ctx context.Context, m *domain.MedicationReminder) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medication_reminders
		SET content = ?, start_date = ?, end_date = ?,
			dose_morning = ?, dose_breakfast_before = ?, dose_breakfast_after = ?,
			dose_lunch_before = ?, dose_lunch_after = ?, dose_dinner_before = ?, dose_dinner_after = ?,
			dose_bedtime = ?, additional_info = ?
		WHERE reminder_id = ? AND user_id = ?`,
		m.Content, dayString(m.StartDate), dayString(m.EndDate),
		boolToInt(m.Doses.Morning), boolToInt(m.Doses.BreakfastBefore), boolToInt(m.Doses.BreakfastAfter),
		boolToInt(m.Doses.LunchBefore), boolToInt(m.Doses.LunchAfter),
		boolToInt(m.Doses.DinnerBefore), boolToInt(m.Doses.DinnerAfter),
		boolToInt(m.Doses.Bedtime), m.AdditionalInfo,
		m.ID, m.UserID,
	)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// DeleteMedicationReminder hard-deletes one regimen, scoped by owner.
func (r *SQLiteRepo) DeleteMedicationReminder(ctx context.Context, userID, reminderID int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM medication_reminders
		WHERE reminder_id = ? AND user_id = ?`,
		reminderID, userID,
	)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// --- hospital reminders ---

const hospitalCols = `reminder_id, user_id, content, start_date, reminder_time_m, additional_info, created_at`

// CreateHospitalReminder inserts an appointment and writes back the new id.
func (r *SQLiteRepo) CreateHospitalReminder(ctx context.Context, h *domain.HospitalReminder) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO hospital_reminders (user_id, content, start_date, reminder_time_m, additional_info, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		h.UserID, h.Content, dayString(h.StartDate), int(h.ReminderTime), h.AdditionalInfo, h.CreatedAt.UTC().Unix(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = id
	return nil
}

func (r *SQLiteRepo) scanHospital(sc rowScanner) (*domain.HospitalReminder, error) {
	var (
		h         domain.HospitalReminder
		start     string
		createdAt int64
	)
	err := sc.Scan(&h.ID, &h.UserID, &h.Content, &start, &h.ReminderTime, &h.AdditionalInfo, &createdAt)
	if err != nil {
		return nil, err
	}
	if h.StartDate, err = parseDay(start, r.loc); err != nil {
		return nil, err
	}
	h.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &h, nil
}

// GetHospitalReminder returns one appointment scoped by owner.
func (r *SQLiteRepo) GetHospitalReminder(ctx context.Context, userID, reminderID int64) (*domain.HospitalReminder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+hospitalCols+`
		FROM hospital_reminders
		WHERE reminder_id = ? AND user_id = ?`,
		reminderID, userID,
	)
	h, err := r.scanHospital(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return h, err
}

func (r *SQLiteRepo) queryHospitals(ctx context.Context, query string, args ...any) ([]domain.HospitalReminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.HospitalReminder
	for rows.Next() {
		h, err := r.scanHospital(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *h)
	}
	return res, rows.Err()
}

// ListHospitalReminders returns all of a user's appointments.
func (r *SQLiteRepo) ListHospitalReminders(ctx context.Context, userID int64) ([]domain.HospitalReminder, error) {
	return r.queryHospitals(ctx, `
		SELECT `+hospitalCols+`
		FROM hospital_reminders
		WHERE user_id = ?
		ORDER BY reminder_id`,
		userID,
	)
}

// ListHospitalRemindersOn returns appointments falling on the given day.
func (r *SQLiteRepo) ListHospitalRemindersOn(ctx context.Context, userID int64, day time.Time) ([]domain.HospitalReminder, error) {
	return r.queryHospitals(ctx, `
		SELECT `+hospitalCols+`
		FROM hospital_reminders
		WHERE user_id = ? AND start_date = ?
		ORDER BY reminder_time_m`,
		userID, dayString(day),
	)
}

// UpdateHospitalReminder persists a modified appointment, scoped by owner.
func (r *SQLiteRepo) UpdateHospitalReminder(ctx context.Context, h *domain.HospitalReminder) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE hospital_reminders
		SET content = ?, start_date = ?, reminder_time_m = ?, additional_info = ?
		WHERE reminder_id = ? AND user_id = ?`,
		h.Content, dayString(h.StartDate), int(h.ReminderTime), h.AdditionalInfo,
		h.ID, h.UserID,
	)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// DeleteHospitalReminder hard-deletes one appointment, scoped by owner.
func (r *SQLiteRepo) DeleteHospitalReminder(ctx context.Context, userID, reminderID int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM hospital_reminders
		WHERE reminder_id = ? AND user_id = ?`,
		reminderID, userID,
	)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// --- scheduled messages ---

// DeleteMessagesBetween removes every message scheduled in [from, to).
func (r *SQLiteRepo) DeleteMessagesBetween(ctx context.Context, from, to time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM scheduled_messages
		WHERE scheduled_time >= ? AND scheduled_time < ?`,
		from.UTC().Unix(), to.UTC().Unix(),
	)
	return err
}

// InsertMessages writes one batch inside a single transaction.
func (r *SQLiteRepo) InsertMessages(ctx context.Context, msgs []domain.ScheduledMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for i := range msgs {
		m := &msgs[i]
		createdAt := m.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		created := createdAt.UTC().Unix()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO scheduled_messages (user_id, title, content, scheduled_time, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			m.UserID, m.Title, m.Content, m.ScheduledTime.UTC().Unix(), string(m.Status), created,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		m.ID = id
	}
	return tx.Commit()
}

func (r *SQLiteRepo) queryMessages(ctx context.Context, query string, args ...any) ([]domain.ScheduledMessage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.ScheduledMessage
	for rows.Next() {
		var (
			m                    domain.ScheduledMessage
			status               string
			scheduled, createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.Content, &scheduled, &status, &createdAt); err != nil {
			return nil, err
		}
		m.ScheduledTime = time.Unix(scheduled, 0).In(r.loc)
		m.Status = domain.MessageStatus(status)
		m.CreatedAt = time.Unix(createdAt, 0).UTC()
		res = append(res, m)
	}
	return res, rows.Err()
}

// ListMessagesBetween returns a user's messages scheduled in [from, to),
// ordered by scheduled time.
func (r *SQLiteRepo) ListMessagesBetween(ctx context.Context, userID int64, from, to time.Time) ([]domain.ScheduledMessage, error) {
	return r.queryMessages(ctx, `
		SELECT id, user_id, title, content, scheduled_time, status, created_at
		FROM scheduled_messages
		WHERE user_id = ? AND scheduled_time >= ? AND scheduled_time < ?
		ORDER BY scheduled_time ASC`,
		userID, from.UTC().Unix(), to.UTC().Unix(),
	)
}

// ListDueMessages returns up to limit pending messages due at or before now,
// earliest first.
func (r *SQLiteRepo) ListDueMessages(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledMessage, error) {
	return r.queryMessages(ctx, `
		SELECT id, user_id, title, content, scheduled_time, status, created_at
		FROM scheduled_messages
		WHERE status = ? AND scheduled_time <= ?
		ORDER BY scheduled_time ASC
		LIMIT ?`,
		string(domain.StatusPending), now.UTC().Unix(), limit,
	)
}

// SetMessageStatus transitions one message out of pending. The WHERE clause
// refuses to move a row backward or to re-send a terminal one.
func (r *SQLiteRepo) SetMessageStatus(ctx context.Context, id int64, status domain.MessageStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_messages
		SET status = ?
		WHERE id = ? AND status = ?`,
		string(status), id, string(domain.StatusPending),
	)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

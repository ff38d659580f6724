package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/samuelitis/seniorBuddy-api-server/internal/domain"
	"github.com/samuelitis/seniorBuddy-api-server/internal/store"
)

const (
	dateLayout = "2006-01-02"
	apptLayout = "2006-01-02T15:04"
)

// --- medication reminders ---

type medicationCreateRequest struct {
	Content        string   `json:"content"`
	StartDate      string   `json:"start_date"` // YYYY-MM-DD
	Duration       string   `json:"duration"`   // keyword, e.g. "7일"
	Frequency      []string `json:"frequency"`  // dose keywords, e.g. "아침식후"
	AdditionalInfo string   `json:"additional_info"`
}

type medicationUpdateRequest struct {
	Content        *string   `json:"content"`
	StartDate      *string   `json:"start_date"`
	Duration       *string   `json:"duration"`
	Frequency      *[]string `json:"frequency"`
	AdditionalInfo *string   `json:"additional_info"`
}

type medicationResponse struct {
	ID             int64    `json:"id"`
	Content        string   `json:"content"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
	Frequency      []string `json:"frequency"`
	AdditionalInfo string   `json:"additional_info,omitempty"`
}

func medicationToResponse(m *domain.MedicationReminder) medicationResponse {
	return medicationResponse{
		ID:             m.ID,
		Content:        m.Content,
		StartDate:      m.StartDate.Format(dateLayout),
		EndDate:        m.EndDate.Format(dateLayout),
		Frequency:      frequencyFromDoses(m.Doses),
		AdditionalInfo: m.AdditionalInfo,
	}
}

func (r *Router) createMedication(w http.ResponseWriter, req *http.Request, userID int64) {
	var body medicationCreateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	start, err := time.ParseInLocation(dateLayout, body.StartDate, r.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	doses, err := dosesFromFrequency(body.Frequency)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reminder, err := domain.NewMedicationReminder(userID, body.Content, start, body.Duration, doses, body.AdditionalInfo)
	if err != nil {
		r.fail(w, err)
		return
	}
	if err := r.repo.CreateMedicationReminder(req.Context(), reminder); err != nil {
		r.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, medicationToResponse(reminder))
}

func (r *Router) listMedication(w http.ResponseWriter, req *http.Request, userID int64) {
	reminders, err := r.repo.ListMedicationReminders(req.Context(), userID)
	if err != nil {
		r.fail(w, err)
		return
	}
	out := make([]medicationResponse, 0, len(reminders))
	for i := range reminders {
		out = append(out, medicationToResponse(&reminders[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (r *Router) updateMedication(w http.ResponseWriter, req *http.Request, userID int64) {
	id, err := pathID(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reminder id")
		return
	}
	var body medicationUpdateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reminder, err := r.repo.GetMedicationReminder(req.Context(), userID, id)
	if err != nil {
		r.fail(w, err)
		return
	}

	patch := domain.MedicationPatch{
		Content:        body.Content,
		Duration:       body.Duration,
		AdditionalInfo: body.AdditionalInfo,
	}
	if body.StartDate != nil {
		start, err := time.ParseInLocation(dateLayout, *body.StartDate, r.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		patch.StartDate = &start
	}
	if body.Frequency != nil {
		doses, err := dosesFromFrequency(*body.Frequency)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		patch.Doses = &doses
	}

	if err := reminder.Apply(patch); err != nil {
		r.fail(w, err)
		return
	}
	if err := r.repo.UpdateMedicationReminder(req.Context(), reminder); err != nil {
		r.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, medicationToResponse(reminder))
}

func (r *Router) deleteMedication(w http.ResponseWriter, req *http.Request, userID int64) {
	id, err := pathID(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reminder id")
		return
	}
	if err := r.repo.DeleteMedicationReminder(req.Context(), userID, id); err != nil {
		r.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "reminder deleted"})
}

// --- hospital reminders ---

type hospitalCreateRequest struct {
	Content        string `json:"content"`
	StartAt        string `json:"start_at"` // YYYY-MM-DDTHH:MM, local
	AdditionalInfo string `json:"additional_info"`
}

type hospitalUpdateRequest struct {
	Content        *string `json:"content"`
	StartAt        *string `json:"start_at"`
	AdditionalInfo *string `json:"additional_info"`
}

type hospitalResponse struct {
	ID             int64  `json:"id"`
	Content        string `json:"content"`
	StartDate      string `json:"start_date"`
	ReminderTime   string `json:"reminder_time"` // HH:MM
	AdditionalInfo string `json:"additional_info,omitempty"`
}

func hospitalToResponse(h *domain.HospitalReminder) hospitalResponse {
	return hospitalResponse{
		ID:             h.ID,
		Content:        h.Content,
		StartDate:      h.StartDate.Format(dateLayout),
		ReminderTime:   h.ReminderTime.String(),
		AdditionalInfo: h.AdditionalInfo,
	}
}

func (r *Router) createHospital(w http.ResponseWriter, req *http.Request, userID int64) {
	var body hospitalCreateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	at, err := time.ParseInLocation(apptLayout, body.StartAt, r.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_at must be YYYY-MM-DDTHH:MM")
		return
	}
	reminder, err := domain.NewHospitalReminder(userID, body.Content, at, body.AdditionalInfo)
	if err != nil {
		r.fail(w, err)
		return
	}
	if err := r.repo.CreateHospitalReminder(req.Context(), reminder); err != nil {
		r.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hospitalToResponse(reminder))
}

func (r *Router) listHospital(w http.ResponseWriter, req *http.Request, userID int64) {
	reminders, err := r.repo.ListHospitalReminders(req.Context(), userID)
	if err != nil {
		r.fail(w, err)
		return
	}
	out := make([]hospitalResponse, 0, len(reminders))
	for i := range reminders {
		out = append(out, hospitalToResponse(&reminders[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (r *Router) updateHospital(w http.ResponseWriter, req *http.Request, userID int64) {
	id, err := pathID(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reminder id")
		return
	}
	var body hospitalUpdateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reminder, err := r.repo.GetHospitalReminder(req.Context(), userID, id)
	if err != nil {
		r.fail(w, err)
		return
	}

	patch := domain.HospitalPatch{
		Content:        body.Content,
		AdditionalInfo: body.AdditionalInfo,
	}
	if body.StartAt != nil {
		at, err := time.ParseInLocation(apptLayout, *body.StartAt, r.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_at must be YYYY-MM-DDTHH:MM")
			return
		}
		patch.At = &at
	}

	if err := reminder.Apply(patch); err != nil {
		r.fail(w, err)
		return
	}
	if err := r.repo.UpdateHospitalReminder(req.Context(), reminder); err != nil {
		r.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hospitalToResponse(reminder))
}

func (r *Router) deleteHospital(w http.ResponseWriter, req *http.Request, userID int64) {
	id, err := pathID(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reminder id")
		return
	}
	if err := r.repo.DeleteHospitalReminder(req.Context(), userID, id); err != nil {
		r.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "reminder deleted"})
}

// --- meal schedule ---

type mealScheduleResponse struct {
	Morning   string `json:"morning"`
	Breakfast string `json:"breakfast"`
	Lunch     string `json:"lunch"`
	Dinner    string `json:"dinner"`
	Bedtime   string `json:"bedtime"`
	UpdatedAt string `json:"updated_at"`
}

func mealScheduleToResponse(s *domain.MealSchedule) mealScheduleResponse {
	return mealScheduleResponse{
		Morning:   s.Morning.String(),
		Breakfast: s.Breakfast.String(),
		Lunch:     s.Lunch.String(),
		Dinner:    s.Dinner.String(),
		Bedtime:   s.Bedtime.String(),
		UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (r *Router) getMealSchedule(w http.ResponseWriter, req *http.Request, userID int64) {
	sched, err := r.meals.Ensure(req.Context(), userID)
	if err != nil {
		r.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mealScheduleToResponse(sched))
}

type adjustRequest struct {
	Slot      string `json:"slot"`      // morning|breakfast|lunch|dinner|bedtime
	Direction string `json:"direction"` // eaten_early|eaten_late
	Minutes   int    `json:"minutes"`   // optional, defaults to 10
}

type adjustResponse struct {
	Defaulted bool                 `json:"defaulted"`
	Schedule  mealScheduleResponse `json:"schedule"`
}

func (r *Router) adjustMealSchedule(w http.ResponseWriter, req *http.Request, userID int64) {
	var body adjustRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := r.meals.Adjust(req.Context(), userID,
		domain.MealSlot(body.Slot), domain.AdjustDirection(body.Direction), body.Minutes)
	if err != nil {
		r.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adjustResponse{
		Defaulted: res.Defaulted,
		Schedule:  mealScheduleToResponse(res.Schedule),
	})
}

// --- scheduled messages ---

type messageResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	ScheduledTime string `json:"scheduled_time"`
	Status        string `json:"status"`
}

func (r *Router) listTodayMessages(w http.ResponseWriter, req *http.Request, userID int64) {
	day := domain.Midnight(time.Now().In(r.loc))
	msgs, err := r.repo.ListMessagesBetween(req.Context(), userID, day, day.AddDate(0, 0, 1))
	if err != nil {
		r.fail(w, err)
		return
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{
			ID:            m.ID,
			Title:         m.Title,
			Content:       m.Content,
			ScheduledTime: m.ScheduledTime.Format(time.RFC3339),
			Status:        string(m.Status),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// --- helpers ---

// fail maps domain and store errors to status codes. Unexpected errors are
// logged and reported as 500 without leaking details.
func (r *Router) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case isValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		r.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidation(err error) bool {
	for _, target := range []error{
		domain.ErrEmptyContent,
		domain.ErrUnknownDuration,
		domain.ErrNoDoseSelected,
		domain.ErrClockRange,
		domain.ErrUnknownMealSlot,
		domain.ErrUnknownDirection,
		ErrUnknownFrequency,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/samuelitis/seniorBuddy-api-server/internal/domain"
	"github.com/samuelitis/seniorBuddy-api-server/internal/mealtime"
	"github.com/samuelitis/seniorBuddy-api-server/internal/store"
)

func newTestServer(t *testing.T) (*http.ServeMux, *store.SQLiteRepo) {
	t.Helper()
	repo, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"), time.UTC)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	log := zap.NewNop()
	router := NewRouter(log, repo, mealtime.New(repo, log), time.UTC)
	mux := http.NewServeMux()
	router.Register(mux)
	return mux, repo
}

func seedUser(t *testing.T, repo *store.SQLiteRepo) *domain.User {
	t.Helper()
	u := domain.NewUser("김영희", "010-1234-5678")
	dest := "device-token"
	u.Destination = &dest
	if err := repo.UpsertUser(context.Background(), u); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	return u
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID > 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestMissingUserHeader(t *testing.T) {
	mux, _ := newTestServer(t)

	rec := doJSON(t, mux, http.MethodGet, "/reminders/medication", 0, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCreateMedication(t *testing.T) {
	mux, repo := newTestServer(t)
	u := seedUser(t, repo)

	rec := doJSON(t, mux, http.MethodPost, "/reminders/medication", u.ID, medicationCreateRequest{
		Content:   "혈압약",
		StartDate: "2024-10-24",
		Duration:  "7일",
		Frequency: []string{"아침식후", "저녁식후"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	got := decode[medicationResponse](t, rec)
	if got.ID == 0 {
		t.Fatal("expected generated id")
	}
	if got.EndDate != "2024-10-31" {
		t.Fatalf("end_date = %s, want 2024-10-31", got.EndDate)
	}
	if len(got.Frequency) != 2 {
		t.Fatalf("frequency = %v", got.Frequency)
	}
}

func TestCreateMedicationValidation(t *testing.T) {
	mux, repo := newTestServer(t)
	u := seedUser(t, repo)

	cases := []struct {
		name string
		body medicationCreateRequest
	}{
		{"unknown duration", medicationCreateRequest{
			Content: "혈압약", StartDate: "2024-10-24", Duration: "가끔", Frequency: []string{"기상"},
		}},
		{"unknown frequency", medicationCreateRequest{
			Content: "혈압약", StartDate: "2024-10-24", Duration: "7일", Frequency: []string{"식간"},
		}},
		{"empty frequency", medicationCreateRequest{
			Content: "혈압약", StartDate: "2024-10-24", Duration: "7일",
		}},
		{"empty content", medicationCreateRequest{
			Content: " ", StartDate: "2024-10-24", Duration: "7일", Frequency: []string{"기상"},
		}},
		{"bad date", medicationCreateRequest{
			Content: "혈압약", StartDate: "24/10/2024", Duration: "7일", Frequency: []string{"기상"},
		}},
	}
	for _, c := range cases {
		rec := doJSON(t, mux, http.MethodPost, "/reminders/medication", u.ID, c.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400 (%s)", c.name, rec.Code, rec.Body.String())
		}
	}
}

func TestUpdateMedicationScoping(t *testing.T) {
	mux, repo := newTestServer(t)
	owner := seedUser(t, repo)
	other := seedUser(t, repo)

	rec := doJSON(t, mux, http.MethodPost, "/reminders/medication", owner.ID, medicationCreateRequest{
		Content: "혈압약", StartDate: "2024-10-24", Duration: "7일", Frequency: []string{"기상"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	created := decode[medicationResponse](t, rec)
	path := fmt.Sprintf("/reminders/medication/%d", created.ID)

	content := "당뇨약"
	// Another user must not see or touch the reminder.
	rec = doJSON(t, mux, http.MethodPut, path, other.ID, medicationUpdateRequest{Content: &content})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign update: %d, want 404", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodDelete, path, other.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign delete: %d, want 404", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPut, path, owner.ID, medicationUpdateRequest{Content: &content})
	if rec.Code != http.StatusOK {
		t.Fatalf("owner update: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[medicationResponse](t, rec); got.Content != "당뇨약" {
		t.Fatalf("content = %q", got.Content)
	}

	rec = doJSON(t, mux, http.MethodDelete, path, owner.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner delete: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, mux, http.MethodGet, "/reminders/medication", owner.ID, nil)
	if got := decode[[]medicationResponse](t, rec); len(got) != 0 {
		t.Fatalf("list after delete = %v", got)
	}
}

func TestHospitalLifecycle(t *testing.T) {
	mux, repo := newTestServer(t)
	u := seedUser(t, repo)

	rec := doJSON(t, mux, http.MethodPost, "/reminders/hospital", u.ID, hospitalCreateRequest{
		Content: "정형외과",
		StartAt: "2024-11-24T15:00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	created := decode[hospitalResponse](t, rec)
	if created.StartDate != "2024-11-24" || created.ReminderTime != "15:00" {
		t.Fatalf("created = %+v", created)
	}

	at := "2024-11-25T09:30"
	rec = doJSON(t, mux, http.MethodPut, fmt.Sprintf("/reminders/hospital/%d", created.ID), u.ID,
		hospitalUpdateRequest{StartAt: &at})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	updated := decode[hospitalResponse](t, rec)
	if updated.StartDate != "2024-11-25" || updated.ReminderTime != "09:30" {
		t.Fatalf("updated = %+v", updated)
	}

	rec = doJSON(t, mux, http.MethodPost, "/reminders/hospital", u.ID, hospitalCreateRequest{
		Content: "정형외과",
		StartAt: "내일 오후",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad start_at: %d, want 400", rec.Code)
	}
}

func TestMealScheduleFlow(t *testing.T) {
	mux, repo := newTestServer(t)
	u := seedUser(t, repo)

	// First read lazily installs the defaults.
	rec := doJSON(t, mux, http.MethodGet, "/schedule/meals", u.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
	sched := decode[mealScheduleResponse](t, rec)
	if sched.Lunch != "12:00" {
		t.Fatalf("default lunch = %s", sched.Lunch)
	}

	rec = doJSON(t, mux, http.MethodPost, "/schedule/meals/adjust", u.ID, adjustRequest{
		Slot:      "lunch",
		Direction: "eaten_early",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("adjust: %d %s", rec.Code, rec.Body.String())
	}
	adj := decode[adjustResponse](t, rec)
	if adj.Defaulted {
		t.Fatal("schedule already existed, should not default")
	}
	if adj.Schedule.Lunch != "11:50" {
		t.Fatalf("lunch after adjust = %s, want 11:50", adj.Schedule.Lunch)
	}

	rec = doJSON(t, mux, http.MethodPost, "/schedule/meals/adjust", u.ID, adjustRequest{
		Slot:      "brunch",
		Direction: "eaten_early",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown slot: %d, want 400", rec.Code)
	}
}

func TestAdjustFirstCallDefaults(t *testing.T) {
	mux, repo := newTestServer(t)
	u := seedUser(t, repo)

	rec := doJSON(t, mux, http.MethodPost, "/schedule/meals/adjust", u.ID, adjustRequest{
		Slot:      "lunch",
		Direction: "eaten_early",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("adjust: %d %s", rec.Code, rec.Body.String())
	}
	adj := decode[adjustResponse](t, rec)
	if !adj.Defaulted {
		t.Fatal("first adjust should install the defaults")
	}
	if adj.Schedule.Lunch != "12:00" {
		t.Fatalf("defaults must come back unshifted, lunch = %s", adj.Schedule.Lunch)
	}
}

func TestListTodayMessages(t *testing.T) {
	mux, repo := newTestServer(t)
	u := seedUser(t, repo)

	today := domain.Midnight(time.Now().UTC())
	msgs := []domain.ScheduledMessage{
		{UserID: u.ID, Title: "약드세요!", Content: "오늘", ScheduledTime: today.Add(9 * time.Hour), Status: domain.StatusPending},
		{UserID: u.ID, Title: "약드세요!", Content: "내일", ScheduledTime: today.Add(33 * time.Hour), Status: domain.StatusPending},
	}
	if err := repo.InsertMessages(context.Background(), msgs); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rec := doJSON(t, mux, http.MethodGet, "/messages/today", u.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
	}
	got := decode[[]messageResponse](t, rec)
	if len(got) != 1 || got[0].Content != "오늘" {
		t.Fatalf("today = %+v", got)
	}
	if got[0].Status != string(domain.StatusPending) {
		t.Fatalf("status = %s", got[0].Status)
	}
}

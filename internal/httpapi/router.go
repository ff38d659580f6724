// Package httpapi exposes the reminder CRUD and meal-schedule surface over
// HTTP. Authentication lives in the excluded gateway; the caller's identity
// arrives as an X-User-ID header.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/samuelitis/seniorBuddy-api-server/internal/mealtime"
	"github.com/samuelitis/seniorBuddy-api-server/internal/store"
)

// Router wires HTTP requests to handlers.
type Router struct {
	log   *zap.Logger
	repo  store.Repo
	meals *mealtime.Service
	loc   *time.Location
}

// NewRouter creates a new API router operating in the given local zone.
func NewRouter(log *zap.Logger, repo store.Repo, meals *mealtime.Service, loc *time.Location) *Router {
	return &Router{log: log, repo: repo, meals: meals, loc: loc}
}

// Register mounts all routes onto mux.
func (r *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /reminders/medication", r.withUser(r.createMedication))
	mux.HandleFunc("GET /reminders/medication", r.withUser(r.listMedication))
	mux.HandleFunc("PUT /reminders/medication/{id}", r.withUser(r.updateMedication))
	mux.HandleFunc("DELETE /reminders/medication/{id}", r.withUser(r.deleteMedication))

	mux.HandleFunc("POST /reminders/hospital", r.withUser(r.createHospital))
	mux.HandleFunc("GET /reminders/hospital", r.withUser(r.listHospital))
	mux.HandleFunc("PUT /reminders/hospital/{id}", r.withUser(r.updateHospital))
	mux.HandleFunc("DELETE /reminders/hospital/{id}", r.withUser(r.deleteHospital))

	mux.HandleFunc("GET /schedule/meals", r.withUser(r.getMealSchedule))
	mux.HandleFunc("POST /schedule/meals/adjust", r.withUser(r.adjustMealSchedule))

	mux.HandleFunc("GET /messages/today", r.withUser(r.listTodayMessages))
}

// userHandler is a handler that already knows who is calling.
type userHandler func(w http.ResponseWriter, req *http.Request, userID int64)

// withUser extracts the caller id from X-User-ID, rejecting requests the
// gateway forwarded without one.
func (r *Router) withUser(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, err := strconv.ParseInt(req.Header.Get("X-User-ID"), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusUnauthorized, "missing or invalid X-User-ID header")
			return
		}
		h(w, req, id)
	}
}

// pathID parses the {id} path segment.
func pathID(req *http.Request) (int64, error) {
	return strconv.ParseInt(req.PathValue("id"), 10, 64)
}

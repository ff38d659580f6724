package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/samuelitis/seniorBuddy-api-server/internal/config"
	"github.com/samuelitis/seniorBuddy-api-server/internal/dispatch"
	"github.com/samuelitis/seniorBuddy-api-server/internal/domain"
	"github.com/samuelitis/seniorBuddy-api-server/internal/expand"
	"github.com/samuelitis/seniorBuddy-api-server/internal/httpapi"
	"github.com/samuelitis/seniorBuddy-api-server/internal/mealtime"
	"github.com/samuelitis/seniorBuddy-api-server/internal/notify"
	"github.com/samuelitis/seniorBuddy-api-server/internal/store"
)

// App owns the process lifecycle: store, notifier, HTTP API, daily expansion
// timer and dispatch loop. Everything is opened in Run and closed on signal.
type App struct {
	cfg    config.Config
	log    *zap.Logger
	loc    *time.Location
	engine *expand.Engine
}

// New validates the configured time zone and builds the app shell.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", cfg.TimeZone, err)
	}
	return &App{cfg: cfg, log: log, loc: loc}, nil
}

// Run starts all components and blocks until a shutdown signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.Info("starting seniorbuddy reminder server",
		zap.String("tz", a.cfg.TimeZone),
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("notifier", a.cfg.NotifyDriver),
	)

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath, a.loc)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	defer func() { _ = repo.Close() }()
	a.log.Info("sqlite ready")

	sender, err := a.buildSender(ctx)
	if err != nil {
		a.log.Error("notifier init failed", zap.Error(err))
		return err
	}

	meals := mealtime.New(repo, a.log)
	a.engine = expand.New(repo, a.log, a.loc)
	loop := dispatch.New(repo, a.log, sender, a.cfg.DispatchInterval, a.cfg.DispatchBatch)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	httpapi.NewRouter(a.log, repo, meals, a.loc).Register(mux)
	srv := &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()
	go loop.Run(ctx)
	go a.runExpansionTimer(ctx)

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}
	return nil
}

func (a *App) buildSender(ctx context.Context) (dispatch.Sender, error) {
	switch a.cfg.NotifyDriver {
	case "fcm":
		return notify.NewFCM(ctx, a.cfg.FCMCredentials)
	case "telegram":
		return notify.NewTelegram(a.cfg.TelegramToken)
	default:
		return nil, fmt.Errorf("unknown notify driver %q", a.cfg.NotifyDriver)
	}
}

// runExpansionTimer fires the daily expansion at the configured local time,
// then re-arms for the next day.
func (a *App) runExpansionTimer(ctx context.Context) {
	at, err := domain.ParseClock(a.cfg.ExpandAt)
	if err != nil {
		a.log.Error("invalid EXPAND_AT, falling back to 00:01", zap.Error(err))
		at = domain.NewClock(0, 1)
	}

	for {
		next := nextRunAt(time.Now().In(a.loc), at)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case now := <-timer.C:
			if err := a.engine.Run(ctx, now.In(a.loc)); err != nil {
				a.log.Error("daily expansion failed", zap.Error(err))
			}
		}
	}
}

// nextRunAt returns the next occurrence of at strictly after now.
func nextRunAt(now time.Time, at domain.Clock) time.Time {
	next := at.At(now)
	if !next.After(now) {
		next = at.At(now.AddDate(0, 0, 1))
	}
	return next
}

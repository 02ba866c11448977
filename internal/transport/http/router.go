package http

import (
	"net/http"

	"github.com/Ccreature09/poko-server/internal/application/attendance"
	"github.com/Ccreature09/poko-server/internal/application/notification"
	"github.com/Ccreature09/poko-server/internal/application/session"
	"github.com/Ccreature09/poko-server/internal/application/timetable"
	"github.com/Ccreature09/poko-server/internal/config"
	"github.com/Ccreature09/poko-server/internal/domain"
	"github.com/Ccreature09/poko-server/internal/transport/http/handler"
	appmiddleware "github.com/Ccreature09/poko-server/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to the login endpoint.
	loginRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	notifSvc := notification.NewService(notification.ServiceDeps{
		NotificationRepo: deps.NotificationRepo,
		SettingsRepo:     deps.SettingsRepo,
		UserRepo:         deps.UserRepo,
		Push:             deps.Push,
		Mailer:           deps.Mailer,
	})
	timetableSvc := timetable.NewService(timetable.ServiceDeps{
		TimetableRepo: deps.TimetableRepo,
		ClassRepo:     deps.ClassRepo,
		SubjectRepo:   deps.SubjectRepo,
	})
	attendanceSvc := attendance.NewService(attendance.ServiceDeps{
		AttendanceRepo: deps.AttendanceRepo,
		UserRepo:       deps.UserRepo,
		ClassRepo:      deps.ClassRepo,
		SubjectRepo:    deps.SubjectRepo,
		Timetable:      timetableSvc,
		Notifier:       notifSvc,
		Exports:        deps.S3Store,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		SessionRepo: deps.SessionRepo,
		UserRepo:    deps.UserRepo,
		Signer:      deps.JWTProvider,
		RefreshTTL:  cfg.RefreshTokenTTL,
	})

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	attendanceH := handler.NewAttendanceHandler(attendanceSvc)
	timetableH := handler.NewTimetableHandler(timetableSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.With(loginRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			// Any authenticated user
			r.Get("/notifications", notifH.List)
			r.Put("/notifications/read-all", notifH.MarkAllRead)
			r.Put("/notifications/{id}/read", notifH.MarkRead)
			r.Delete("/notifications/{id}", notifH.Delete)
			r.Get("/notifications/settings", notifH.GetSettings)
			r.Put("/notifications/settings", notifH.UpdateSettings)
			r.Get("/timetables/{classID}", timetableH.Get)
			r.Get("/timetables/{classID}/period-over", timetableH.PeriodOver)

			// Teacher or admin
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleTeacher, domain.RoleAdmin))

				r.Get("/timetables/teacher/schedule", timetableH.TeacherSchedule)
				r.Get("/timetables/teacher/current", timetableH.CurrentClass)
				r.Post("/attendance", attendanceH.Record)
				r.Get("/attendance/reports/student/{id}", attendanceH.StudentReport)
			})

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Put("/timetables/{classID}", timetableH.Save)
				r.Get("/attendance/reports/school", attendanceH.SchoolStats)
				r.Post("/attendance/reports/student/{id}/export", attendanceH.ExportStudentReport)
				r.Post("/notifications/cleanup", notifH.Cleanup)
			})
		})
	})

	return r
}

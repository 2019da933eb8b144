package handlers

import (
	"net/http"
	"time"

	"github.com/cipelem/pengaduan-server/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// API bundles the handlers mounted under /api/v1
type API struct {
	Health       *HealthHandler
	Complaint    *ComplaintHandler
	Category     *CategoryHandler
	Auth         *AuthHandler
	User         *UserHandler
	Notification *NotificationHandler
	Activity     *ActivityHandler
	Integrity    *IntegrityHandler

	Authenticate middleware.Authenticator
	// Timeout bounds every request except the notification stream
	Timeout time.Duration
}

// Routes returns the /api/v1 router
func (a API) Routes() http.Handler {
	r := chi.NewRouter()
	requireAuth := middleware.RequireAuth(a.Authenticate)

	// the live stream outlives any request timeout
	r.With(requireAuth, middleware.RequireStaff()).Get("/notifications/stream", a.Notification.Stream)

	r.Group(func(r chi.Router) {
		if a.Timeout > 0 {
			r.Use(chimw.Timeout(a.Timeout))
		}

		r.Get("/health", a.Health.Check)
		r.Get("/health/ready", a.Health.Ready)
		r.Get("/stats/public", a.Complaint.PublicStats)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", a.Auth.Register)
			r.Post("/login", a.Auth.Login)
		})

		r.Route("/integrity", func(r chi.Router) {
			r.Get("/root", a.Integrity.Root)
			r.Get("/proof/{index}", a.Integrity.Proof)
		})

		r.Route("/complaints", func(r chi.Router) {
			// public: residents hold only their ticket
			r.Post("/", a.Complaint.Submit)
			r.Get("/ticket/{ticketID}", a.Complaint.ByTicket)
			r.Post("/ticket/{ticketID}/responses", a.Complaint.RespondByTicket)
			r.Get("/ticket/{ticketID}/notifications", a.Notification.ByTicket)
			r.Patch("/ticket/{ticketID}/notifications/{id}/read", a.Notification.MarkReadByTicket)
			r.Delete("/ticket/{ticketID}/notifications/{id}", a.Notification.DeleteByTicket)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, middleware.RequireStaff())
				r.Get("/", a.Complaint.List)
				r.Get("/recent", a.Complaint.Recent)
				r.Get("/{id}", a.Complaint.Detail)
				r.Patch("/{id}/status", a.Complaint.ChangeStatus)
				r.Patch("/{id}/priority", a.Complaint.ChangePriority)
				r.Post("/{id}/responses", a.Complaint.Respond)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", a.Category.List)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, middleware.RequireAdmin())
				r.Post("/", a.Category.Create)
				r.Put("/{id}", a.Category.Update)
				r.Delete("/{id}", a.Category.Delete)
				r.Post("/{id}/deactivate", a.Category.Deactivate)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, middleware.RequireStaff())

			r.Get("/dashboard/summary", a.Complaint.Dashboard)
			r.Get("/activity/ticket/{ticketID}", a.Activity.ByTicket)
			r.Get("/activity/recent", a.Activity.Recent)

			r.Get("/me", a.User.Profile)
			r.Patch("/me", a.User.UpdateProfile)

			r.Get("/notifications", a.Notification.List)
			r.Get("/notifications/unread-count", a.Notification.UnreadCount)
			r.Patch("/notifications/read-all", a.Notification.MarkAllRead)
			r.Patch("/notifications/{id}/read", a.Notification.MarkRead)
			r.Delete("/notifications/{id}", a.Notification.Delete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth, middleware.RequireAdmin())
			r.Get("/", a.User.List)
			r.Post("/", a.User.Create)
			r.Delete("/{id}", a.User.Delete)
		})
	})

	return r
}

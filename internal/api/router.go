package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/meletis/propflow/internal/models"
	"github.com/meletis/propflow/internal/scheduling"
	"github.com/meletis/propflow/internal/storage"
	"github.com/meletis/propflow/internal/store"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether header identity is enforced; loginRPS
// and loginBurst throttle the login endpoint per client IP.
func NewRouter(svc *scheduling.Service, db *store.DB, files storage.Provider, authEnabled bool, loginRPS float64, loginBurst int) chi.Router {
	h := NewHandler(svc, db, files)

	r := chi.NewRouter()

	// Login stays outside the identity group so a user without an
	// account id can still authenticate.
	r.With(RateLimit(loginRPS, loginBurst)).Post("/users/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(IdentityMiddleware(authEnabled, db))

		// Appointments and calendar views. Fixed segments come
		// before the {id} routes.
		r.Get("/appointments/calendar", h.CalendarEvents)
		r.Get("/appointments/day", h.DayAppointments)
		r.Get("/appointments", h.ListAppointments)
		r.Post("/appointments", h.CreateAppointment)
		r.Get("/appointments/{id}", h.GetAppointment)
		r.Put("/appointments/{id}", h.UpdateAppointment)
		r.Delete("/appointments/{id}", h.DeleteAppointment)

		// Document attachments.
		r.Get("/appointments/{id}/documents", h.ListDocuments)
		r.Post("/appointments/{id}/documents", h.UploadDocument)
		r.Delete("/appointments/{id}/documents/{name}", h.DeleteDocument)

		// Clients.
		r.Get("/clients/stats", h.ClientStats)
		r.Get("/clients", h.ListClients)
		r.Post("/clients", h.CreateClient)
		r.Get("/clients/{id}", h.GetClient)
		r.Put("/clients/{id}", h.UpdateClient)
		r.Delete("/clients/{id}", h.DeleteClient)

		// Properties.
		r.Get("/properties/stats", h.PropertyStats)
		r.Get("/properties", h.ListProperties)
		r.Post("/properties", h.CreateProperty)
		r.Get("/properties/{id}", h.GetProperty)
		r.Put("/properties/{id}", h.UpdateProperty)
		r.Delete("/properties/{id}", h.DeleteProperty)

		// Staff accounts. Any authenticated user may read them; only
		// admins may create, update, or delete.
		r.Get("/users", h.ListUsers)
		r.Get("/users/{id}", h.GetUser)
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(authEnabled, models.RoleAdmin))
			r.Post("/users", h.CreateUser)
			r.Put("/users/{id}", h.UpdateUser)
			r.Delete("/users/{id}", h.DeleteUser)
		})
	})

	return r
}

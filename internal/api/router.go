package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/queuecare/hospital-backend/internal/auth"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Auth         *AuthHandler
	Appointments *AppointmentHandler
	Inventory    *InventoryHandler
	Health       *HealthHandler
	AuthService  *auth.Service
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	r.Get("/health/live", deps.Health.Live)
	r.Get("/health/ready", deps.Health.Ready)

	r.Post("/auth/register", deps.Auth.Register)
	r.Post("/auth/login", deps.Auth.Login)

	// Supplier approval links arrive by email; no login required, the
	// signed token in the path is the credential.
	r.Get("/restock/approve/{medicineID}/{token}", deps.Inventory.ApproveRestock)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(deps.AuthService))

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", deps.Appointments.Book)
			r.Get("/", deps.Appointments.ListForDay)
			r.Get("/{id}", deps.Appointments.Get)
			r.Post("/{id}/cancel", deps.Appointments.Cancel)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(auth.RoleDoctor, auth.RoleAdmin))
				r.Post("/{id}/confirm", deps.Appointments.Confirm)
				r.Post("/{id}/complete", deps.Appointments.Complete)
			})
		})

		r.Route("/doctors/{doctorID}", func(r chi.Router) {
			r.Get("/availability", deps.Appointments.Availability)
			r.Get("/appointments", deps.Appointments.ListForDay)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(auth.RoleDoctor, auth.RoleAdmin))
				r.Put("/availability", deps.Appointments.SetAvailability)
			})
		})

		r.Post("/orders", deps.Inventory.PlaceOrder)
		r.Get("/orders/{id}", deps.Inventory.GetOrder)

		r.Route("/medicines", func(r chi.Router) {
			r.Get("/{id}", deps.Inventory.GetMedicine)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(auth.RoleAdmin))
				r.Post("/", deps.Inventory.CreateMedicine)
				r.Get("/low-stock", deps.Inventory.LowStock)
				r.Get("/{id}/restock-history", deps.Inventory.RestockHistory)
			})
		})

		r.Route("/reorders", func(r chi.Router) {
			r.Use(RequireRole(auth.RoleAdmin))
			r.Get("/", deps.Inventory.ListReorders)
			r.Post("/scan", deps.Inventory.TriggerScan)
			r.Patch("/{id}/status", deps.Inventory.UpdateReorderStatus)
			r.Get("/{id}/history", deps.Inventory.ReorderHistory)
		})
	})

	return r
}

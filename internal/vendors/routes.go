package vendors

import "github.com/go-chi/chi/v5"

// MountRoutes registers the admin vendor endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAdmin)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Deactivate)
		r.Post("/{id}/activate", h.Reactivate)
	})
}

package purchasing

import "github.com/go-chi/chi/v5"

// MountRoutes registers the admin purchase order endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAdmin)
		r.Get("/orders", h.List)
		r.Post("/orders", h.Create)
		r.Get("/orders/cancelled", h.ListCancelled)
		r.Get("/orders/{id}", h.Get)
		r.Delete("/orders/{id}", h.Delete)
		r.Put("/orders/{id}/items", h.AdminEdit)
		r.Post("/orders/{id}/approve", h.Approve)
		r.Post("/orders/{id}/reject", h.Reject)
		r.Post("/orders/{id}/complete", h.Complete)
		r.Post("/orders/{id}/cancel", h.Cancel)
		r.Post("/orders/{id}/restore", h.Restore)
		r.Post("/orders/{id}/document", h.GenerateDocument)
	})
}

// MountPortalRoutes registers the vendor-facing order endpoints.
func (h *Handler) MountPortalRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireVendor)
		r.Get("/orders", h.PortalList)
		r.Get("/orders/{id}", h.PortalGet)
		r.Put("/orders/{id}/items", h.PortalEdit)
	})
}

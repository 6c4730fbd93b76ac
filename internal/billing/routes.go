package billing

import "github.com/go-chi/chi/v5"

// MountRoutes registers the admin bill endpoints under the mount point.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAdmin)
		r.Get("/bills", h.List)
		r.Post("/bills", h.Create)
		r.Post("/bills/from-order", h.CreateFromOrder)
		r.Get("/bills/{id}", h.Get)
		r.Patch("/bills/{id}", h.Update)
		r.Post("/bills/{id}/document", h.GenerateDocument)
		r.Get("/resolve", h.Resolve)
	})
}

// MountPortalRoutes registers the vendor-facing bill endpoints.
func (h *Handler) MountPortalRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireVendor)
		r.Get("/bills", h.PortalList)
		r.Get("/bills/{id}", h.PortalGet)
	})
}

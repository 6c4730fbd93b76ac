package docgen

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vendorhub/vendorhub/internal/platform/httpx"
	"github.com/vendorhub/vendorhub/internal/rbac"
)

// Handler serves stored documents.
type Handler struct {
	svc    *Service
	rbac   rbac.Middleware
	logger *slog.Logger
}

// NewHandler constructs a docgen handler.
func NewHandler(svc *Service, guard rbac.Middleware, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, rbac: guard, logger: logger}
}

// MountRoutes registers the download endpoint for authenticated users.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireUser)
		r.Get("/{id}", h.Download)
	})
}

// Download handles GET /documents/{id}.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	doc, err := h.svc.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("get document", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	// Vendors only see documents rendered from their own records. A
	// mismatch reads as not-found so foreign IDs leak nothing.
	if rbac.Role(r) == rbac.RoleVendor {
		ownerID, err := h.svc.OwnerVendorID(r.Context(), doc)
		if err != nil || ownerID == 0 || ownerID != rbac.VendorID(r) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	http.ServeFile(w, r, doc.Path)
}

package notify

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vendorhub/vendorhub/internal/platform/httpx"
	"github.com/vendorhub/vendorhub/internal/rbac"
)

// Handler exposes the portal notification endpoints.
type Handler struct {
	svc    *Service
	rbac   rbac.Middleware
	logger *slog.Logger
}

// NewHandler constructs a notify handler.
func NewHandler(svc *Service, guard rbac.Middleware, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, rbac: guard, logger: logger}
}

// MountPortalRoutes registers notification endpoints for vendor sessions.
func (h *Handler) MountPortalRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireVendor)
		r.Get("/notifications", h.List)
		r.Post("/notifications/{id}/read", h.MarkRead)
	})
}

type notificationResponse struct {
	ID         int64     `json:"id"`
	EventType  string    `json:"event_type"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

type listResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
}

// List handles GET /portal/notifications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	items, total, err := h.svc.ListForUser(r.Context(), rbac.UserID(r), limit, offset)
	if err != nil {
		h.logger.Error("list notifications", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	resp := listResponse{Notifications: make([]notificationResponse, 0, len(items)), Total: total}
	for _, n := range items {
		resp.Notifications = append(resp.Notifications, notificationResponse{
			ID:         n.ID,
			EventType:  n.EventType,
			EntityType: n.EntityType,
			EntityID:   n.EntityID,
			Message:    n.Message,
			Read:       n.Read,
			CreatedAt:  n.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// MarkRead handles POST /portal/notifications/{id}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if err := h.svc.MarkRead(r.Context(), id, rbac.UserID(r)); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("mark notification read", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

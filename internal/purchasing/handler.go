package purchasing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vendorhub/vendorhub/internal/platform/httpx"
	"github.com/vendorhub/vendorhub/internal/rbac"
)

// DocumentPort generates a PDF for an entity and returns the document ID.
type DocumentPort interface {
	Generate(ctx context.Context, entityType string, entityID int64) (int64, error)
}

// Handler exposes purchase order endpoints.
type Handler struct {
	svc      *Service
	docs     DocumentPort
	rbac     rbac.Middleware
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler constructs a purchasing handler.
func NewHandler(svc *Service, docs DocumentPort, guard rbac.Middleware, validate *validator.Validate, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, docs: docs, rbac: guard, validate: validate, logger: logger}
}

// List handles GET /purchasing/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	filters := ListFilters{
		Status:  r.URL.Query().Get("status"),
		Search:  r.URL.Query().Get("q"),
		SortBy:  r.URL.Query().Get("sort_by"),
		SortDir: r.URL.Query().Get("sort_dir"),
	}
	if v := r.URL.Query().Get("vendor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.FieldProblem(w, "invalid query parameters", map[string]string{"vendor_id": "must be an integer"})
			return
		}
		filters.VendorID = id
	}
	orders, total, err := h.svc.List(r.Context(), limit, offset, filters)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toListResponse(orders, total, limit, offset))
}

// ListCancelled handles GET /purchasing/orders/cancelled.
func (h *Handler) ListCancelled(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	orders, total, err := h.svc.ListCancelled(r.Context(), limit, offset, ListFilters{Search: r.URL.Query().Get("q")})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toListResponse(orders, total, limit, offset))
}

// Create handles POST /purchasing/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FieldProblem(w, "invalid order payload", validationFields(err))
		return
	}
	order, items, err := h.svc.Create(r.Context(), CreateOrderInput{
		Number:    req.Number,
		VendorID:  req.VendorID,
		OrderDate: req.OrderDate,
		Notes:     req.Notes,
		Items:     toItemInputs(req.Items),
		CreatedBy: rbac.UserID(r),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toOrderResponse(order, items))
}

// Get handles GET /purchasing/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, items, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order, items))
}

// Approve handles POST /purchasing/orders/{id}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.svc.Approve)
}

// Reject handles POST /purchasing/orders/{id}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.svc.Reject)
}

// Complete handles POST /purchasing/orders/{id}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.svc.Complete)
}

// Cancel handles POST /purchasing/orders/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.svc.Cancel)
}

// Restore handles POST /purchasing/orders/{id}/restore.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.svc.Restore)
}

// AdminEdit handles PUT /purchasing/orders/{id}/items.
func (h *Handler) AdminEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeEdit(w, r)
	if !ok {
		return
	}
	order, items, err := h.svc.AdminEdit(r.Context(), id, toEditInput(req), rbac.UserID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order, items))
}

// GenerateDocument handles POST /purchasing/orders/{id}/document.
func (h *Handler) GenerateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if h.docs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "document generation is not configured")
		return
	}
	docID, err := h.docs.Generate(r.Context(), "purchase_order", id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]int64{"document_id": docID})
}

// Delete handles DELETE /purchasing/orders/{id}. Only cancelled orders go.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id, rbac.UserID(r)); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PortalList handles GET /portal/orders for the authenticated vendor.
func (h *Handler) PortalList(w http.ResponseWriter, r *http.Request) {
	vendorID := rbac.VendorID(r)
	if vendorID == 0 {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	limit, offset := parsePage(r)
	orders, total, err := h.svc.List(r.Context(), limit, offset, ListFilters{
		VendorID: vendorID,
		Status:   r.URL.Query().Get("status"),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toListResponse(orders, total, limit, offset))
}

// PortalGet handles GET /portal/orders/{id}, scoped to the session vendor.
func (h *Handler) PortalGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, items, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if order.VendorID != rbac.VendorID(r) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order, items))
}

// PortalEdit handles PUT /portal/orders/{id}/items.
func (h *Handler) PortalEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeEdit(w, r)
	if !ok {
		return
	}
	order, items, err := h.svc.VendorEdit(r.Context(), id, rbac.VendorID(r), toEditInput(req), rbac.UserID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order, items))
}

func (h *Handler) action(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, int64) (PurchaseOrder, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := fn(r.Context(), id, rbac.UserID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order, nil))
}

func (h *Handler) decodeEdit(w http.ResponseWriter, r *http.Request) (EditRequest, bool) {
	var req EditRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return EditRequest{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FieldProblem(w, "invalid order payload", validationFields(err))
		return EditRequest{}, false
	}
	return req, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *ValidationError
	var tErr *TransitionError
	switch {
	case errors.As(err, &vErr):
		httpx.FieldProblem(w, "invalid order payload", vErr.Fields)
	case errors.As(err, &tErr):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Transition Not Allowed", tErr.Error())
	case errors.Is(err, ErrNotCancelled):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("purchasing handler error", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func toEditInput(req EditRequest) EditInput {
	return EditInput{Notes: req.Notes, Items: toItemInputs(req.Items)}
}

func toItemInputs(items []LineItemReq) []LineItemInput {
	out := make([]LineItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, LineItemInput{Description: item.Description, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	return out
}

func validationFields(err error) map[string]string {
	fields := make(map[string]string)
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, fe := range vErrs {
			fields[fe.Field()] = "failed on " + fe.Tag()
		}
	}
	return fields
}

func parsePage(r *http.Request) (limit, offset int) {
	limit = 20
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
	return limit, offset
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.ErrNotFound)
		return 0, false
	}
	return id, true
}

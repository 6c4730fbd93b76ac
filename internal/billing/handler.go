package billing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vendorhub/vendorhub/internal/platform/httpx"
	"github.com/vendorhub/vendorhub/internal/rbac"
)

// DocumentPort generates a PDF for an entity and returns the document ID.
type DocumentPort interface {
	Generate(ctx context.Context, entityType string, entityID int64) (int64, error)
}

// Handler exposes bill endpoints.
type Handler struct {
	svc      *Service
	docs     DocumentPort
	rbac     rbac.Middleware
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler constructs a billing handler.
func NewHandler(svc *Service, docs DocumentPort, guard rbac.Middleware, validate *validator.Validate, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, docs: docs, rbac: guard, validate: validate, logger: logger}
}

// transitionProblem is the 422 payload for a rejected workflow selection.
// It carries the selectable set so a client can correct the form directly.
type transitionProblem struct {
	httpx.ProblemDetail
	RequestedStatus    WorkflowStatus   `json:"requested_status"`
	SelectableStatuses []WorkflowStatus `json:"selectable_workflow_statuses"`
}

// List handles GET /billing/bills.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	filters := ListFilters{
		WorkflowStatus: r.URL.Query().Get("workflow_status"),
		PaymentStatus:  r.URL.Query().Get("payment_status"),
		Search:         r.URL.Query().Get("q"),
		SortBy:         r.URL.Query().Get("sort_by"),
		SortDir:        r.URL.Query().Get("sort_dir"),
	}
	if v := r.URL.Query().Get("vendor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.FieldProblem(w, "invalid query parameters", map[string]string{"vendor_id": "must be an integer"})
			return
		}
		filters.VendorID = id
	}
	bills, total, err := h.svc.ListBills(r.Context(), limit, offset, filters)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toListResponse(bills, total, limit, offset))
}

// Create handles POST /billing/bills.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FieldProblem(w, "invalid bill payload", validationFields(err))
		return
	}
	input := CreateBillInput{
		Number:    req.Number,
		VendorID:  req.VendorID,
		IssueDate: req.IssueDate,
		DueDate:   req.DueDate,
		Notes:     req.Notes,
		Items:     toItemInputs(req.Items),
		CreatedBy: rbac.UserID(r),
	}
	if req.PurchaseOrderID != nil {
		input.PurchaseOrderID = *req.PurchaseOrderID
	}
	bill, items, err := h.svc.CreateBill(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toBillResponse(bill, items))
}

// CreateFromOrder handles POST /billing/bills/from-order.
func (h *Handler) CreateFromOrder(w http.ResponseWriter, r *http.Request) {
	var req GenerateFromOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FieldProblem(w, "invalid payload", validationFields(err))
		return
	}
	var due time.Time
	if req.DueDate != nil {
		due = *req.DueDate
	}
	bill, err := h.svc.CreateFromPurchaseOrder(r.Context(), req.PurchaseOrderID, due, rbac.UserID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toBillResponse(bill, nil))
}

// Get handles GET /billing/bills/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	bill, items, err := h.svc.GetBill(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toBillResponse(bill, items))
}

// Update handles PATCH /billing/bills/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	patch, err := toPatch(req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	bill, items, err := h.svc.ProposeUpdate(r.Context(), id, patch, rbac.UserID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toBillResponse(bill, items))
}

// Resolve handles GET /billing/resolve. It previews the consistency outcome
// for a workflow/payment pair without touching any bill, so edit forms can
// render the selectable set up front.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	workflow := WorkflowStatus(r.URL.Query().Get("workflow_status"))
	payment := PaymentStatus(r.URL.Query().Get("payment_status"))
	fields := make(map[string]string)
	if !workflow.Valid() {
		fields["workflow_status"] = "unknown workflow status"
	}
	if !payment.Valid() {
		fields["payment_status"] = "unknown payment status"
	}
	if len(fields) > 0 {
		httpx.FieldProblem(w, "invalid status pair", fields)
		return
	}
	httpx.JSON(w, http.StatusOK, ResolveConsistency(workflow, payment))
}

// GenerateDocument handles POST /billing/bills/{id}/document.
func (h *Handler) GenerateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if h.docs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "document generation is not configured")
		return
	}
	docID, err := h.docs.Generate(r.Context(), "bill", id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]int64{"document_id": docID})
}

// PortalList handles GET /portal/bills for the authenticated vendor.
func (h *Handler) PortalList(w http.ResponseWriter, r *http.Request) {
	vendorID := rbac.VendorID(r)
	if vendorID == 0 {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	limit, offset := parsePage(r)
	filters := ListFilters{
		VendorID:       vendorID,
		WorkflowStatus: r.URL.Query().Get("workflow_status"),
		PaymentStatus:  r.URL.Query().Get("payment_status"),
	}
	bills, total, err := h.svc.ListBills(r.Context(), limit, offset, filters)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toListResponse(bills, total, limit, offset))
}

// PortalGet handles GET /portal/bills/{id}, scoped to the session vendor.
func (h *Handler) PortalGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	bill, items, err := h.svc.GetBill(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if bill.VendorID != rbac.VendorID(r) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, toBillResponse(bill, items))
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *ValidationError
	var tErr *TransitionError
	switch {
	case errors.As(err, &vErr):
		httpx.FieldProblem(w, "invalid bill payload", vErr.Fields)
	case errors.As(err, &tErr):
		httpx.JSON(w, http.StatusUnprocessableEntity, transitionProblem{
			ProblemDetail: httpx.ProblemDetail{
				Title:  "Workflow Status Not Selectable",
				Status: http.StatusUnprocessableEntity,
				Detail: tErr.Error(),
			},
			RequestedStatus:    tErr.Requested,
			SelectableStatuses: tErr.Selectable,
		})
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrDuplicateNumber):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "bill number already exists")
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("billing handler error", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func toPatch(req UpdateRequest) (UpdatePatch, error) {
	patch := UpdatePatch{
		IssueDate: req.IssueDate,
		DueDate:   req.DueDate,
		Total:     req.Total,
		Notes:     req.Notes,
	}
	if req.Items != nil {
		items := toItemInputs(*req.Items)
		patch.Items = &items
	}
	if req.WorkflowStatus != nil {
		status := WorkflowStatus(*req.WorkflowStatus)
		if !status.Valid() {
			return UpdatePatch{}, &ValidationError{Fields: map[string]string{"workflow_status": "unknown workflow status"}}
		}
		patch.WorkflowStatus = &status
	}
	if req.PaymentStatus != nil {
		status := PaymentStatus(*req.PaymentStatus)
		if !status.Valid() {
			return UpdatePatch{}, &ValidationError{Fields: map[string]string{"payment_status": "unknown payment status"}}
		}
		patch.PaymentStatus = &status
	}
	return patch, nil
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

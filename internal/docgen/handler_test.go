package docgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/vendorhub/vendorhub/internal/billing"
	"github.com/vendorhub/vendorhub/internal/purchasing"
	"github.com/vendorhub/vendorhub/internal/rbac"
	"github.com/vendorhub/vendorhub/internal/shared"
)

func newDownloadFixture(t *testing.T) (*chi.Mux, int64) {
	t.Helper()
	repo := newMemoryDocRepo()
	bills := &stubBillSource{
		bill: billing.Bill{ID: 8, Number: "BILL-8", VendorID: 3, WorkflowStatus: billing.WorkflowIssued, PaymentStatus: billing.PaymentUnpaid, IssueDate: time.Now(), DueDate: time.Now()},
	}
	orders := &stubOrderSource{order: purchasing.PurchaseOrder{ID: 5, VendorID: 3, Status: purchasing.StatusApproved}}
	svc := NewService(repo, bills, orders, stubVendorSource{}, stubRenderer{}, t.TempDir(), nil)

	docID, err := svc.Generate(context.Background(), "bill", 8)
	require.NoError(t, err)

	handler := NewHandler(svc, rbac.Middleware{}, nil)
	router := chi.NewRouter()
	router.Route("/documents", handler.MountRoutes)
	return router, docID
}

func vendorSession(vendorID string) *shared.Session {
	sess := &shared.Session{ID: "sess-vendor"}
	sess.SetUser("7")
	sess.Set(rbac.RoleKey, rbac.RoleVendor)
	sess.Set(rbac.VendorIDKey, vendorID)
	return sess
}

func adminSession() *shared.Session {
	sess := &shared.Session{ID: "sess-admin"}
	sess.SetUser("1")
	sess.Set(rbac.RoleKey, rbac.RoleAdmin)
	return sess
}

func downloadAs(t *testing.T, router *chi.Mux, docID int64, sess *shared.Session) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/documents/"+strconv.FormatInt(docID, 10), nil)
	if sess != nil {
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDownloadOwnVendorDocument(t *testing.T) {
	router, docID := newDownloadFixture(t)

	rec := downloadAs(t, router, docID, vendorSession("3"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
}

func TestDownloadForeignVendorDocumentHidden(t *testing.T) {
	router, docID := newDownloadFixture(t)

	rec := downloadAs(t, router, docID, vendorSession("9"))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadAsAdmin(t *testing.T) {
	router, docID := newDownloadFixture(t)

	rec := downloadAs(t, router, docID, adminSession())
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDownloadRequiresAuthentication(t *testing.T) {
	router, docID := newDownloadFixture(t)

	rec := downloadAs(t, router, docID, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

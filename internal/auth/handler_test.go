package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vendorhub/vendorhub/internal/auth"
	"github.com/vendorhub/vendorhub/internal/rbac"
	"github.com/vendorhub/vendorhub/internal/shared"
	_ "github.com/vendorhub/vendorhub/testing"
)

type stubRepo struct {
	user            *auth.User
	sessions        map[string]int64
	deletedSessions []string
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrInvalidCredentials
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]int64)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	s.deletedSessions = append(s.deletedSessions, id)
	return nil
}

func newTestHandler(t *testing.T, repo *stubRepo) (chi.Router, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	handler := auth.NewHandler(nil, auth.NewService(repo), sessionManager, csrfManager)
	router := chi.NewRouter()
	handler.MountRoutes(router)
	return router, sessionManager
}

func vendorUser(t *testing.T, password string) *auth.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return &auth.User{
		ID:           1,
		Email:        "vendor@test.local",
		PasswordHash: string(hashed),
		Role:         rbac.RoleVendor,
		VendorID:     3,
		IsActive:     true,
	}
}

func serveWithSession(t *testing.T, router chi.Router, sessionManager *shared.SessionManager, req *http.Request) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	sess, err := sessionManager.Load(context.Background(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.NoError(t, sessionManager.Commit(ctx, res, req, sess))
	return res, sess
}

func TestLoginSuccess(t *testing.T) {
	repo := &stubRepo{user: vendorUser(t, "correct-horse")}
	router, sessionManager := newTestHandler(t, repo)

	body := `{"email":"vendor@test.local","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, sess := serveWithSession(t, router, sessionManager, req)
	require.Equal(t, http.StatusOK, res.Code)

	var resp struct {
		UserID    int64  `json:"user_id"`
		Email     string `json:"email"`
		Role      string `json:"role"`
		VendorID  *int64 `json:"vendor_id"`
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.UserID)
	require.Equal(t, rbac.RoleVendor, resp.Role)
	require.NotNil(t, resp.VendorID)
	require.Equal(t, int64(3), *resp.VendorID)
	require.NotEmpty(t, resp.CSRFToken)

	require.Equal(t, "1", sess.User())
	require.Equal(t, rbac.RoleVendor, sess.Get(rbac.RoleKey))
	require.Equal(t, "3", sess.Get(rbac.VendorIDKey))
	require.Equal(t, resp.CSRFToken, sess.Get(shared.CSRFSessionKey))
	require.Contains(t, repo.sessions, sess.ID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &stubRepo{user: vendorUser(t, "correct-horse")}
	router, sessionManager := newTestHandler(t, repo)

	body := `{"email":"vendor@test.local","password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, _ := serveWithSession(t, router, sessionManager, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Empty(t, repo.sessions)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := vendorUser(t, "correct-horse")
	user.IsActive = false
	router, sessionManager := newTestHandler(t, &stubRepo{user: user})

	body := `{"email":"vendor@test.local","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, _ := serveWithSession(t, router, sessionManager, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginPayloadValidation(t *testing.T) {
	router, sessionManager := newTestHandler(t, &stubRepo{})

	body := `{"email":"not-an-email","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, _ := serveWithSession(t, router, sessionManager, req)
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Contains(t, res.Body.String(), "Email")
	require.Contains(t, res.Body.String(), "Password")
}

func TestLogoutDestroysSession(t *testing.T) {
	repo := &stubRepo{user: vendorUser(t, "correct-horse")}
	router, sessionManager := newTestHandler(t, repo)

	loginBody := `{"email":"vendor@test.local","password":"correct-horse"}`
	loginReq := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(loginBody))
	loginReq.Header.Set("Content-Type", "application/json")
	loginRes, sess := serveWithSession(t, router, sessionManager, loginReq)
	require.Equal(t, http.StatusOK, loginRes.Code)

	logoutReq := httptest.NewRequest(http.MethodPost, "/logout", nil)
	logoutReq.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})
	logoutRes, _ := serveWithSession(t, router, sessionManager, logoutReq)
	require.Equal(t, http.StatusNoContent, logoutRes.Code)
	require.Contains(t, repo.deletedSessions, sess.ID)
}

func TestMeRequiresAuthentication(t *testing.T) {
	repo := &stubRepo{user: vendorUser(t, "correct-horse")}
	router, sessionManager := newTestHandler(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	res, _ := serveWithSession(t, router, sessionManager, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestMeReturnsCurrentUser(t *testing.T) {
	repo := &stubRepo{user: vendorUser(t, "correct-horse")}
	router, sessionManager := newTestHandler(t, repo)

	loginBody := `{"email":"vendor@test.local","password":"correct-horse"}`
	loginReq := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(loginBody))
	loginReq.Header.Set("Content-Type", "application/json")
	_, sess := serveWithSession(t, router, sessionManager, loginReq)

	meReq := httptest.NewRequest(http.MethodGet, "/me", nil)
	meReq.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})
	meRes, _ := serveWithSession(t, router, sessionManager, meReq)
	require.Equal(t, http.StatusOK, meRes.Code)
	require.Contains(t, meRes.Body.String(), "vendor@test.local")
}

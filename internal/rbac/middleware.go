// Package rbac gates routes on the two portal roles: admin and vendor.
package rbac

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vendorhub/vendorhub/internal/platform/httpx"
	"github.com/vendorhub/vendorhub/internal/shared"
)

// Session value keys written at login time.
const (
	RoleKey     = "role"
	VendorIDKey = "vendor_id"

	RoleAdmin  = "admin"
	RoleVendor = "vendor"
)

// Middleware enforces role requirements on route groups.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAdmin rejects requests without an authenticated admin session.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.require(RoleAdmin, next)
}

// RequireVendor rejects requests without an authenticated vendor session.
func (m Middleware) RequireVendor(next http.Handler) http.Handler {
	return m.require(RoleVendor, next)
}

// RequireUser rejects unauthenticated requests regardless of role.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserID(r) == 0 {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) require(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		if sess.Get(RoleKey) != role {
			if m.Logger != nil {
				m.Logger.Warn("role denied", slog.String("path", r.URL.Path), slog.String("required", role))
			}
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserID returns the authenticated user's ID, or 0.
func UserID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	return id
}

// VendorID returns the vendor scope of a vendor session, or 0.
func VendorID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.Get(VendorIDKey), 10, 64)
	return id
}

// Role returns the session role, or an empty string.
func Role(r *http.Request) string {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return ""
	}
	return sess.Get(RoleKey)
}

// sqadmin/handlers/middleware.go
package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"sqadmin/metrics"
	"sqadmin/session"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const CSRFTokenKey ContextKey = "csrfToken"

// SessionMiddleware resolves the signed session cookie into a live session
// and attaches it to the request context. Requests without a valid cookie
// pass through without a session; the guards decide what that means.
func SessionMiddleware(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(session.CookieName); err == nil {
				if id, ok := app.Cookies().Decode(cookie.Value); ok {
					if sess := app.Sessions().Get(id); sess != nil {
						r = r.WithContext(session.WithSession(r.Context(), sess))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin guards the console pages. The order is deliberate: while the
// store is hydrating nothing is decided yet; without a session the operator
// goes to login; with a session but without admin role they get an explicit
// denied page rather than a redirect, so a broken role resolution upstream
// cannot produce a redirect loop.
func RequireAdmin(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if app.Sessions().IsHydrating() {
				render(w, r, app, "layout.html", "loading.html", map[string]any{"Title": "加载中"})
				return
			}

			sess, ok := session.FromContext(r.Context())
			if !ok || sess.Token() == "" {
				http.Redirect(w, r, app.Config().BasePath+"/login", http.StatusSeeOther)
				return
			}

			// Profile unresolved (fresh login still reconciling, or first
			// request after a restart): resolve it now. A failure means the
			// token is dead.
			if sess.User() == nil {
				if err := app.Sessions().RefreshUser(r.Context(), sess); err != nil {
					app.Logger().Warn("Profile refresh failed, session invalidated", "error", err)
					http.SetCookie(w, app.Cookies().Clear())
					http.Redirect(w, r, app.Config().BasePath+"/login", http.StatusSeeOther)
					return
				}
			}

			if !sess.IsAdmin() {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusForbidden)
				render(w, r, app, "layout.html", "denied.html", map[string]any{
					"Title": "权限不足",
					"User":  sess.User(),
				})
				return
			}

			app.Sessions().Touch(sess)
			next.ServeHTTP(w, r)
		})
	}
}

// CSRFMiddleware protects against Cross-Site Request Forgery attacks.
func CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		csrfCookie, err := r.Cookie("csrf_token")
		var csrfToken string

		if err != nil || csrfCookie.Value == "" {
			csrfToken = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     "csrf_token",
				Value:    csrfToken,
				Path:     "/",
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		} else {
			csrfToken = csrfCookie.Value
		}

		if r.Method == http.MethodPost {
			tokenFromForm := r.FormValue("csrf_token")
			if tokenFromForm == "" {
				tokenFromForm = r.Header.Get("X-CSRF-Token")
			}
			if subtle.ConstantTimeCompare([]byte(tokenFromForm), []byte(csrfToken)) != 1 {
				http.Error(w, "Invalid CSRF token", http.StatusForbidden)
				return
			}
		}

		ctx := context.WithValue(r.Context(), CSRFTokenKey, csrfToken)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// NewStructuredLogger logs one line per request through slog.
func NewStructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			metrics.ObserveHTTP(ww.Status())
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// SecurityHeadersMiddleware sets the baseline response headers.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

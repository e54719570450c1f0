// sqadmin/handlers/handlers.go

package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"sqadmin/backend"
	"sqadmin/cache"
	"sqadmin/config"
	"sqadmin/models"
	"sqadmin/session"
)

// App is an interface that defines the dependencies our handlers need.
type App interface {
	Backend() *backend.Client
	Sessions() *session.Manager
	Cookies() *session.CookieCodec
	Cache() *cache.Store
	RateLimiter() *models.RateLimiter
	Logger() *slog.Logger
	Config() *config.Config
}

// MakeHandler adapts an app-aware handler func to http.HandlerFunc.
func MakeHandler(app App, fn func(http.ResponseWriter, *http.Request, App)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, app)
	}
}

// --- Pagination helpers ---

// ClampPage clamps a 1-based CRUD page to [1, max(1, pages)].
func ClampPage(page, pages int) int {
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		return 1
	}
	if page > pages {
		return pages
	}
	return page
}

// ClampSearchPage clamps a 0-based search page to [0, max(1, totalPages)-1].
func ClampSearchPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 0 {
		return 0
	}
	if page > totalPages-1 {
		return totalPages - 1
	}
	return page
}

// parseIntOr parses s or falls back.
func parseIntOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// statusFilter reads the status dropdown's value. Empty or -1 means "all",
// which translates to omitting the parameter upstream.
func statusFilter(r *http.Request) (val string, status *int) {
	val = r.URL.Query().Get("status")
	if val == "" {
		val = "-1"
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return "-1", nil
	}
	return val, &n
}

// pageURL rebuilds the current list URL with a different page number.
func pageURL(path string, query url.Values, page int) string {
	q := url.Values{}
	for key, vals := range query {
		q[key] = vals
	}
	q.Set("page", strconv.Itoa(page))
	return path + "?" + q.Encode()
}

// Pager is the previous/next control's view model. Prev/Next are empty
// exactly at the boundaries, which the template renders as disabled.
type Pager struct {
	Page  int // display page number (1-based even for search views)
	Pages int
	Prev  string
	Next  string
}

func newPager(path string, query url.Values, page, pages int) Pager {
	p := Pager{Page: page, Pages: pages}
	if pages < 1 {
		p.Pages = 1
	}
	if page > 1 {
		p.Prev = pageURL(path, query, page-1)
	}
	if page < p.Pages {
		p.Next = pageURL(path, query, page+1)
	}
	return p
}

// --- Toast flash messages ---

const toastCookie = "sq_toast"

// Toast is a one-shot result banner carried across the post-action redirect.
type Toast struct {
	Kind    string // "success" or "error"
	Message string
}

// setToast stores a toast for the next page render.
func setToast(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     toastCookie,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popToast consumes a pending toast, if any.
func popToast(w http.ResponseWriter, r *http.Request) *Toast {
	cookie, err := r.Cookie(toastCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: toastCookie, Value: "", Path: "/", MaxAge: -1})

	decoded, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, found := strings.Cut(decoded, "|")
	if !found {
		return nil
	}
	return &Toast{Kind: kind, Message: message}
}

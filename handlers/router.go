// sqadmin/handlers/router.go

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"sqadmin/config"
	"sqadmin/metrics"
)

// NewRouter wires every route of the console behind the shared middleware
// stack. When BasePath is set the whole console mounts under it.
func NewRouter(app App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewStructuredLogger(app.Logger()))
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeadersMiddleware)
	r.Use(CSRFMiddleware)
	r.Use(SessionMiddleware(app))

	r.Get("/healthz", MakeHandler(app, handleHealth))
	r.Handle("/metrics", metrics.Handler())

	r.Get("/login", MakeHandler(app, HandleLogin))
	r.Post("/login", MakeHandler(app, HandleLogin))
	r.Post("/logout", MakeHandler(app, HandleLogout))

	r.Group(func(r chi.Router) {
		r.Use(RequireAdmin(app))

		r.Get("/", MakeHandler(app, HandleHome))
		r.Get("/dashboard", MakeHandler(app, HandleDashboard))
		r.Get("/analytics", MakeHandler(app, HandleAnalytics))

		r.Get("/posts", MakeHandler(app, HandlePosts))
		r.Get("/posts/{id}", MakeHandler(app, HandlePostDetail))
		r.Post("/posts/{id}/audit", MakeHandler(app, HandleAuditPost))
		r.Get("/posts/{id}/delete", MakeHandler(app, HandleDeletePostConfirm))
		r.Post("/posts/{id}/delete", MakeHandler(app, HandleDeletePost))

		r.Get("/users", MakeHandler(app, HandleUsers))
		r.Get("/users/{id}/stats", MakeHandler(app, HandleUserStats))
		r.Get("/users/{id}/ban", MakeHandler(app, HandleBanUserConfirm))
		r.Post("/users/{id}/ban", MakeHandler(app, HandleBanUser))

		r.Get("/search", MakeHandler(app, HandleSearch))
	})

	if base := app.Config().BasePath; base != "" {
		root := chi.NewRouter()
		root.Mount(base, r)
		root.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, base+"/", http.StatusMovedPermanently)
		})
		return root
	}
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request, app App) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": config.AppVersion,
	})
}

// sqadmin/handlers/render.go

package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"sqadmin/config"
	"sqadmin/models"
	"sqadmin/session"
)

var (
	templates *template.Template
)

// LoadTemplates parses all HTML files from the templates directory.
func LoadTemplates() error {
	funcMap := template.FuncMap{
		"postStatus":  models.PostStatusLabel,
		"userStatus":  models.UserStatusLabel,
		"isAdminRole": models.IsAdminRole,
		"formatMillis": func(ms int64) string {
			if ms == 0 {
				return "-"
			}
			return time.UnixMilli(ms).Format("2006-01-02 15:04")
		},
		"counter": func(n *int64) string {
			if n == nil {
				return "-"
			}
			return fmt.Sprintf("%d", *n)
		},
		"add":      func(a, b int) int { return a + b },
		"subtract": func(a, b int) int { return a - b },
		"truncate": func(max int, s string) string {
			runes := []rune(s)
			if len(runes) > max {
				return string(runes[:max]) + "..."
			}
			return s
		},
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
	}
	templateFiles, err := filepath.Glob("templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to find templates: %w", err)
	}
	templates = template.New("").Funcs(funcMap)
	templates = template.Must(templates.ParseFiles(templateFiles...))
	return nil
}

// render executes the given templates with the provided data.
func render(w http.ResponseWriter, r *http.Request, app App, layout, contentTmpl string, data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}

	data["AppVersion"] = config.AppVersion
	data["BasePath"] = app.Config().BasePath
	if _, ok := data["Active"]; !ok {
		data["Active"] = ""
	}

	if csrfToken, ok := r.Context().Value(CSRFTokenKey).(string); ok {
		data["csrfToken"] = csrfToken
	}
	if sess, ok := session.FromContext(r.Context()); ok {
		data["Session"] = sess
		if _, set := data["User"]; !set {
			data["User"] = sess.User()
		}
	}
	if _, ok := data["Toast"]; !ok {
		data["Toast"] = popToast(w, r)
	}

	contentBuf := new(bytes.Buffer)
	if err := templates.ExecuteTemplate(contentBuf, contentTmpl, data); err != nil {
		app.Logger().Error("Error rendering content template", "template", contentTmpl, "error", err)
		http.Error(w, "Failed to render page content", http.StatusInternalServerError)
		return
	}
	data["Content"] = template.HTML(contentBuf.String())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, layout, data); err != nil {
		app.Logger().Error("Error rendering layout template", "template", layout, "error", err)
	}
}

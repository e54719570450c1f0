// sqadmin/handlers/actions.go

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sqadmin/backend"
	"sqadmin/session"
)

// HandleAuditPost approves or rejects a post and sends the operator back to
// the queue page they acted from. The upstream's own message becomes the
// toast; the list cache is dropped so the next render reflects the decision.
func HandleAuditPost(w http.ResponseWriter, r *http.Request, app App) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	pass := r.FormValue("pass") == "true"

	message, err := app.Backend().AuditPost(r.Context(), id, pass)
	if err != nil {
		app.Logger().Error("Audit failed", "postId", id, "pass", pass, "error", err)
		setToast(w, "error", backend.UserMessage(err, "审核操作失败"))
	} else {
		app.Cache().Invalidate("admin-posts:")
		app.Cache().Invalidate("post-detail:" + strconv.FormatInt(id, 10))
		app.Cache().Invalidate("dashboard-stats")
		if message == "" {
			message = "操作成功"
		}
		setToast(w, "success", message)
		app.Logger().Info("Post audited", "postId", id, "pass", pass)
	}

	http.Redirect(w, r, backTo(r, app.Config().BasePath+"/posts"), http.StatusSeeOther)
}

// HandleDeletePostConfirm renders the deletion confirmation page. Deletion is
// irreversible upstream, so the action never fires from the list directly.
func HandleDeletePostConfirm(w http.ResponseWriter, r *http.Request, app App) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	post, err := app.Backend().PostDetail(r.Context(), id)
	data := map[string]any{
		"Title":  "确认删除",
		"Active": "posts",
		"PostID": id,
		"Back":   backTo(r, app.Config().BasePath+"/posts"),
	}
	if err != nil {
		app.Logger().Warn("Post detail unavailable for delete confirm", "postId", id, "error", err)
	} else {
		data["Post"] = post
	}
	render(w, r, app, "layout.html", "confirm_delete.html", data)
}

// HandleDeletePost removes a post permanently.
func HandleDeletePost(w http.ResponseWriter, r *http.Request, app App) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	message, err := app.Backend().DeletePost(r.Context(), id)
	if err != nil {
		app.Logger().Error("Delete failed", "postId", id, "error", err)
		setToast(w, "error", backend.UserMessage(err, "删除失败"))
	} else {
		app.Cache().Invalidate("admin-posts:")
		app.Cache().Invalidate("post-detail:" + strconv.FormatInt(id, 10))
		app.Cache().Invalidate("dashboard-stats")
		if message == "" {
			message = "删除成功"
		}
		setToast(w, "success", message)
		app.Logger().Info("Post deleted", "postId", id)
	}

	http.Redirect(w, r, backTo(r, app.Config().BasePath+"/posts"), http.StatusSeeOther)
}

// HandleBanUserConfirm renders the ban confirmation page, naming the account
// so the operator sees exactly who they are about to ban. There is no unban,
// so this page is the last stop.
func HandleBanUserConfirm(w http.ResponseWriter, r *http.Request, app App) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	data := map[string]any{
		"Title":  "确认封禁",
		"Active": "users",
		"UserID": id,
		"Back":   backTo(r, app.Config().BasePath+"/users"),
	}
	if nickname := r.URL.Query().Get("nickname"); nickname != "" {
		data["Nickname"] = nickname
	}
	if username := r.URL.Query().Get("username"); username != "" {
		data["Username"] = username
	}
	render(w, r, app, "layout.html", "confirm_ban.html", data)
}

// HandleBanUser bans an account.
func HandleBanUser(w http.ResponseWriter, r *http.Request, app App) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	message, err := app.Backend().BanUser(r.Context(), id)
	if err != nil {
		app.Logger().Error("Ban failed", "userId", id, "error", err)
		setToast(w, "error", backend.UserMessage(err, "封禁失败"))
	} else {
		app.Cache().Invalidate("admin-users:")
		app.Cache().Invalidate("dashboard-stats")
		if message == "" {
			message = "封禁成功"
		}
		setToast(w, "success", message)
		app.Logger().Info("User banned", "userId", id)
	}

	http.Redirect(w, r, backTo(r, app.Config().BasePath+"/users"), http.StatusSeeOther)
}

// HandleLogout tears the session down synchronously and clears the cookie.
// Safe to call without a session.
func HandleLogout(w http.ResponseWriter, r *http.Request, app App) {
	if sess, ok := session.FromContext(r.Context()); ok {
		app.Sessions().Logout(sess)
	}
	http.SetCookie(w, app.Cookies().Clear())
	http.Redirect(w, r, app.Config().BasePath+"/login", http.StatusSeeOther)
}

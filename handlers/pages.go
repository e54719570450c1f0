// sqadmin/handlers/pages.go

package handlers

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"sqadmin/backend"
	"sqadmin/cache"
	"sqadmin/models"
	"sqadmin/session"
	"sqadmin/utils"
)

var validate = validator.New()

type loginForm struct {
	Username string `validate:"required,min=1,max=64"`
	Password string `validate:"required,min=1,max=128"`
}

// HandleHome sends the operator to the dashboard; the admin guard takes it
// from there.
func HandleHome(w http.ResponseWriter, r *http.Request, app App) {
	http.Redirect(w, r, app.Config().BasePath+"/dashboard", http.StatusSeeOther)
}

// HandleLogin renders the credential form and exchanges credentials for a
// session. The form is the only page reachable without a session.
func HandleLogin(w http.ResponseWriter, r *http.Request, app App) {
	if sess, ok := session.FromContext(r.Context()); ok && sess.Token() != "" {
		http.Redirect(w, r, app.Config().BasePath+"/dashboard", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		render(w, r, app, "layout.html", "login.html", map[string]any{"Title": "管理员登录", "Username": ""})
		return
	}

	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	if !app.RateLimiter().GetLimiter(ip).Allow() {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusTooManyRequests)
		render(w, r, app, "layout.html", "login.html", map[string]any{
			"Title":    "管理员登录",
			"Error":    "尝试过于频繁，请稍后再试",
			"Username": "",
		})
		return
	}

	form := loginForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
	if err := validate.Struct(form); err != nil {
		render(w, r, app, "layout.html", "login.html", map[string]any{
			"Title":    "管理员登录",
			"Error":    "请输入用户名和密码",
			"Username": form.Username,
		})
		return
	}

	result, err := app.Backend().Login(r.Context(), form.Username, form.Password)
	if err != nil {
		app.Logger().Info("Login rejected", "username", form.Username, "error", err)
		render(w, r, app, "layout.html", "login.html", map[string]any{
			"Title":    "管理员登录",
			"Error":    backend.UserMessage(err, "登录失败，请稍后再试"),
			"Username": form.Username,
		})
		return
	}

	sess, err := app.Sessions().Login(r.Context(), result.Token)
	if err != nil {
		app.Logger().Error("Failed to persist session", "error", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	cookie, err := app.Cookies().Issue(sess)
	if err != nil {
		app.Logger().Error("Failed to sign session cookie", "error", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, cookie)
	app.Logger().Info("Operator logged in", "username", form.Username, "userId", result.UserID)

	http.Redirect(w, r, app.Config().BasePath+"/dashboard", http.StatusSeeOther)
}

// HandleDashboard renders the stats overview. The summary and the ranked
// post list load concurrently; either side failing leaves the other intact.
func HandleDashboard(w http.ResponseWriter, r *http.Request, app App) {
	var (
		wg       sync.WaitGroup
		stats    models.DashboardStats
		statsErr error
		top      []models.TopPost
		topErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		stats, statsErr = cache.Fetch(app.Cache(), cache.Key("dashboard-stats"), func() (models.DashboardStats, error) {
			return app.Backend().StatsWithFallback(r.Context())
		})
	}()
	go func() {
		defer wg.Done()
		top, topErr = cache.Fetch(app.Cache(), cache.Key("top-posts"), func() ([]models.TopPost, error) {
			return app.Backend().TopPosts(r.Context())
		})
	}()
	wg.Wait()

	data := map[string]any{
		"Title":    "仪表盘",
		"Active":   "dashboard",
		"Stats":    stats,
		"TopPosts": top,
	}
	if statsErr != nil {
		app.Logger().Error("Dashboard stats unavailable", "error", statsErr)
		data["StatsError"] = backend.UserMessage(statsErr, "统计数据加载失败")
	}
	if topErr != nil {
		app.Logger().Warn("Top posts unavailable", "error", topErr)
		data["TopPostsError"] = backend.UserMessage(topErr, "热门帖子加载失败")
	}
	render(w, r, app, "layout.html", "dashboard.html", data)
}

// HandleAnalytics renders the full analytics view, including the opaque
// extra counters the dashboard summary does not chart.
func HandleAnalytics(w http.ResponseWriter, r *http.Request, app App) {
	stats, err := cache.Fetch(app.Cache(), cache.Key("dashboard-stats"), func() (models.DashboardStats, error) {
		return app.Backend().StatsWithFallback(r.Context())
	})
	top, topErr := cache.Fetch(app.Cache(), cache.Key("top-posts"), func() ([]models.TopPost, error) {
		return app.Backend().TopPosts(r.Context())
	})
	if topErr != nil {
		app.Logger().Warn("Top posts unavailable", "error", topErr)
	}
	data := map[string]any{
		"Title":    "数据分析",
		"Active":   "analytics",
		"Stats":    stats,
		"TopPosts": top,
	}
	if stats.TotalUsers != nil && stats.ActiveUsers24h != nil && *stats.TotalUsers > 0 {
		data["ActiveRate"] = fmt.Sprintf("%.1f%%", float64(*stats.ActiveUsers24h)/float64(*stats.TotalUsers)*100)
	}
	if err != nil {
		app.Logger().Error("Analytics stats unavailable", "error", err)
		data["StatsError"] = backend.UserMessage(err, "统计数据加载失败")
	}
	render(w, r, app, "layout.html", "analytics.html", data)
}

// HandlePosts renders the moderation queue. An out-of-range page is clamped
// against the fetched total and refetched at most once.
func HandlePosts(w http.ResponseWriter, r *http.Request, app App) {
	page := parseIntOr(r.URL.Query().Get("page"), 1)
	if page < 1 {
		page = 1
	}
	statusVal, status := statusFilter(r)
	size := app.Config().PageSize

	fetch := func(current int) (models.PageResult[models.Post], error) {
		key := cache.Key("admin-posts", statusVal, strconv.Itoa(current), strconv.Itoa(size))
		return cache.Fetch(app.Cache(), key, func() (models.PageResult[models.Post], error) {
			return app.Backend().ListPosts(r.Context(), current, size, status)
		})
	}

	result, err := fetch(page)
	if err != nil {
		renderListError(w, r, app, "posts", "内容管理", err)
		return
	}
	if clamped := ClampPage(page, result.Pages); clamped != page {
		page = clamped
		if result, err = fetch(page); err != nil {
			renderListError(w, r, app, "posts", "内容管理", err)
			return
		}
	}

	render(w, r, app, "layout.html", "posts.html", map[string]any{
		"Title":     "内容管理",
		"Active":    "posts",
		"Result":    result,
		"StatusVal": statusVal,
		"Pager":     newPager(app.Config().BasePath+"/posts", r.URL.Query(), page, result.Pages),
	})
}

// HandlePostDetail renders a single post with its media and tag lists
// unpacked.
func HandlePostDetail(w http.ResponseWriter, r *http.Request, app App) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	post, err := cache.Fetch(app.Cache(), cache.Key("post-detail", strconv.FormatInt(id, 10)), func() (models.Post, error) {
		return app.Backend().PostDetail(r.Context(), id)
	})
	if err != nil {
		renderListError(w, r, app, "posts", "帖子详情", err)
		return
	}

	render(w, r, app, "layout.html", "post_detail.html", map[string]any{
		"Title":  "帖子详情",
		"Active": "posts",
		"Post":   post,
		"Images": utils.ParseStringList(post.ImageURLs),
		"Tags":   utils.ParseStringList(post.Tags),
		"Back":   backTo(r, app.Config().BasePath+"/posts"),
	})
}

// HandleUsers renders the account list with the same clamp-and-refetch page
// handling as the moderation queue.
func HandleUsers(w http.ResponseWriter, r *http.Request, app App) {
	page := parseIntOr(r.URL.Query().Get("page"), 1)
	if page < 1 {
		page = 1
	}
	statusVal, status := statusFilter(r)
	size := app.Config().PageSize

	fetch := func(current int) (models.PageResult[models.Profile], error) {
		key := cache.Key("admin-users", statusVal, strconv.Itoa(current), strconv.Itoa(size))
		return cache.Fetch(app.Cache(), key, func() (models.PageResult[models.Profile], error) {
			return app.Backend().ListUsers(r.Context(), current, size, status)
		})
	}

	result, err := fetch(page)
	if err != nil {
		renderListError(w, r, app, "users", "用户管理", err)
		return
	}
	if clamped := ClampPage(page, result.Pages); clamped != page {
		page = clamped
		if result, err = fetch(page); err != nil {
			renderListError(w, r, app, "users", "用户管理", err)
			return
		}
	}

	render(w, r, app, "layout.html", "users.html", map[string]any{
		"Title":     "用户管理",
		"Active":    "users",
		"Result":    result,
		"StatusVal": statusVal,
		"Pager":     newPager(app.Config().BasePath+"/users", r.URL.Query(), page, result.Pages),
	})
}

// HandleUserStats renders one account's behavioral aggregates alongside its
// indexed posts.
func HandleUserStats(w http.ResponseWriter, r *http.Request, app App) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	page := parseIntOr(r.URL.Query().Get("page"), 0)
	if page < 0 {
		page = 0
	}
	size := app.Config().PageSize

	stats, statsErr := cache.Fetch(app.Cache(), cache.Key("user-stats", strconv.FormatInt(id, 10)), func() (map[string]any, error) {
		return app.Backend().UserStats(r.Context(), id)
	})

	posts, postsErr := app.Backend().SearchUserPosts(r.Context(), id, page, size)
	if postsErr == nil {
		if clamped := ClampSearchPage(page, posts.TotalPages); clamped != page {
			page = clamped
			posts, postsErr = app.Backend().SearchUserPosts(r.Context(), id, page, size)
		}
	}

	data := map[string]any{
		"Title":  "用户统计",
		"Active": "users",
		"UserID": id,
		"Stats":  stats,
		"Posts":  posts,
		"Pager":  newSearchPager(app.Config().BasePath+"/users/"+strconv.FormatInt(id, 10)+"/stats", r.URL.Query(), page, posts.TotalPages),
	}
	if statsErr != nil {
		app.Logger().Warn("User stats unavailable", "userId", id, "error", statsErr)
		data["StatsError"] = backend.UserMessage(statsErr, "统计数据加载失败")
	}
	if postsErr != nil {
		app.Logger().Warn("User posts unavailable", "userId", id, "error", postsErr)
		data["PostsError"] = backend.UserMessage(postsErr, "帖子列表加载失败")
	}
	render(w, r, app, "layout.html", "user_stats.html", data)
}

// HandleSearch queries the search index by keyword or by author ID. A blank
// query renders the empty form; nothing goes upstream for it.
func HandleSearch(w http.ResponseWriter, r *http.Request, app App) {
	mode := r.URL.Query().Get("mode")
	if mode != "user" {
		mode = "keyword"
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	data := map[string]any{
		"Title":  "搜索查询",
		"Active": "search",
		"Mode":   mode,
		"Query":  query,
	}

	if query == "" {
		render(w, r, app, "layout.html", "search.html", data)
		return
	}

	page := parseIntOr(r.URL.Query().Get("page"), 0)
	if page < 0 {
		page = 0
	}
	size := app.Config().PageSize

	fetch := func(p int) (models.SearchPageResult[models.PostDoc], error) {
		if mode == "user" {
			userID, convErr := strconv.ParseInt(query, 10, 64)
			if convErr != nil {
				return models.SearchPageResult[models.PostDoc]{}, convErr
			}
			return app.Backend().SearchUserPosts(r.Context(), userID, p, size)
		}
		return app.Backend().SearchPosts(r.Context(), query, p, size)
	}

	if mode == "user" {
		if _, convErr := strconv.ParseInt(query, 10, 64); convErr != nil {
			data["Error"] = "用户搜索需要数字 ID"
			render(w, r, app, "layout.html", "search.html", data)
			return
		}
	}

	result, err := fetch(page)
	if err == nil {
		if clamped := ClampSearchPage(page, result.TotalPages); clamped != page {
			page = clamped
			result, err = fetch(page)
		}
	}
	if err != nil {
		app.Logger().Error("Search failed", "mode", mode, "error", err)
		data["Error"] = backend.UserMessage(err, "搜索失败，请稍后再试")
		render(w, r, app, "layout.html", "search.html", data)
		return
	}

	data["Result"] = result
	data["Pager"] = newSearchPager(app.Config().BasePath+"/search", r.URL.Query(), page, result.TotalPages)
	render(w, r, app, "layout.html", "search.html", data)
}

// backTo rebuilds the list URL a detail view came from, preserving its page
// and filter.
func backTo(r *http.Request, path string) string {
	q := url.Values{}
	for _, key := range []string{"page", "status"} {
		if v := r.URL.Query().Get(key); v != "" {
			q.Set(key, v)
		}
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// renderListError renders a list page shell with only an error banner, so the
// navigation chrome survives an upstream outage.
func renderListError(w http.ResponseWriter, r *http.Request, app App, active, title string, err error) {
	app.Logger().Error("Upstream list fetch failed", "view", active, "error", err)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadGateway)
	render(w, r, app, "layout.html", "error.html", map[string]any{
		"Title":  title,
		"Active": active,
		"Error":  backend.UserMessage(err, "上游服务暂不可用"),
	})
}

// newSearchPager is newPager for the 0-based search family; the display page
// stays 1-based.
func newSearchPager(path string, query url.Values, page, totalPages int) Pager {
	if totalPages < 1 {
		totalPages = 1
	}
	p := Pager{Page: page + 1, Pages: totalPages}
	if page > 0 {
		p.Prev = pageURL(path, query, page-1)
	}
	if page < totalPages-1 {
		p.Next = pageURL(path, query, page+1)
	}
	return p
}

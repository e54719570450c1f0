package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqadmin/models"
)

func postPage(current, pages int, posts ...models.Post) models.PageResult[models.Post] {
	return models.PageResult[models.Post]{
		Records: posts,
		Total:   int64(pages * len(posts)),
		Size:    10,
		Current: current,
		Pages:   pages,
	}
}

func TestAccessGuards(t *testing.T) {
	t.Run("No session redirects to login", func(t *testing.T) {
		env := setupTestEnv(t)
		rr := env.get(t, "/posts")
		require.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("Location"))
	})

	t.Run("Non-admin gets denied page, not a redirect", func(t *testing.T) {
		env := setupTestEnv(t)
		env.upstream.serveProfile(models.Profile{ID: 2, Username: "bob", Nickname: "小明", Role: "user"})
		env.loginAsAdmin(t)

		rr := env.get(t, "/posts")
		require.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), "权限不足")
		assert.Contains(t, rr.Body.String(), "小明")
		assert.Empty(t, rr.Header().Get("Location"))
	})

	t.Run("Uppercase ADMIN role is accepted", func(t *testing.T) {
		env := setupTestEnv(t)
		env.upstream.serveProfile(models.Profile{ID: 1, Username: "root", Nickname: "站长", Role: "ADMIN"})
		env.upstream.handle("/api/core/admin/posts", func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, postPage(1, 1))
		})
		env.loginAsAdmin(t)

		rr := env.get(t, "/posts")
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestLoginFlow(t *testing.T) {
	env := setupTestEnv(t)
	env.upstream.serveProfile(adminProfile())
	env.upstream.handle("/api/identity/login", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, map[string]any{"token": "bearer-xyz", "userId": 1, "nickname": "站长"})
	})

	rr := env.post(t, "/login", url.Values{"username": {"root"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))

	var found bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == "sq_session" && c.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "expected a signed session cookie")
}

func TestLoginRejected(t *testing.T) {
	env := setupTestEnv(t)
	env.upstream.handle("/api/identity/login", func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, 1001, "用户名或密码错误")
	})

	rr := env.post(t, "/login", url.Values{"username": {"root"}, "password": {"wrong"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "用户名或密码错误")
}

func TestPostsPageClamp(t *testing.T) {
	env := setupTestEnv(t)
	env.upstream.serveProfile(adminProfile())
	env.upstream.handle("/api/core/admin/posts", func(w http.ResponseWriter, r *http.Request) {
		current, _ := strconv.Atoi(r.URL.Query().Get("current"))
		writeEnvelope(w, postPage(current, 3, models.Post{ID: 1, Title: "hello", Status: 1}))
	})
	env.loginAsAdmin(t)

	rr := env.get(t, "/posts?page=99")
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, 1, env.upstream.callsTo("current=99"), "out-of-range page should be tried once")
	assert.Equal(t, 1, env.upstream.callsTo("current=3"), "then refetched at the clamped page")
	assert.Contains(t, rr.Body.String(), "第 3 / 3 页")
}

func TestPostsFilterResetsPage(t *testing.T) {
	env := setupTestEnv(t)
	env.upstream.serveProfile(adminProfile())
	env.upstream.handle("/api/core/admin/posts", func(w http.ResponseWriter, r *http.Request) {
		current, _ := strconv.Atoi(r.URL.Query().Get("current"))
		writeEnvelope(w, postPage(current, 1))
	})
	env.loginAsAdmin(t)

	// The filter form carries no page field, so switching the filter lands
	// on the first page of the new result set.
	rr := env.get(t, "/posts?status=1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, env.upstream.callsTo("current=1"))
	assert.Equal(t, 1, env.upstream.callsTo("status=1"))
}

func TestPostsAllFilterOmitsStatus(t *testing.T) {
	env := setupTestEnv(t)
	env.upstream.serveProfile(adminProfile())
	var sawStatus bool
	env.upstream.handle("/api/core/admin/posts", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("status") {
			sawStatus = true
		}
		writeEnvelope(w, postPage(1, 1))
	})
	env.loginAsAdmin(t)

	rr := env.get(t, "/posts?status=-1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, sawStatus, `the "all" filter must omit the status parameter upstream`)
}

func TestSearchBlankQuerySkipsUpstream(t *testing.T) {
	env := setupTestEnv(t)
	env.upstream.serveProfile(adminProfile())
	env.loginAsAdmin(t)

	for _, path := range []string{"/search", "/search?q=", "/search?q=%20%20%20"} {
		rr := env.get(t, path)
		require.Equal(t, http.StatusOK, rr.Code, path)
	}
	assert.Equal(t, 0, env.upstream.callsTo("/api/search"), "blank queries must not reach the search service")
}

func TestSearchKeyword(t *testing.T) {
	env := setupTestEnv(t)
	env.upstream.serveProfile(adminProfile())
	env.upstream.handle("/api/search/posts", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, models.SearchPageResult[models.PostDoc]{
			Content:       []models.PostDoc{{ID: "9", Title: "golang 入门", AuthorName: "小明", Status: 1, CreateTime: 1700000000000}},
			TotalElements: 1,
			TotalPages:    1,
		})
	})
	env.loginAsAdmin(t)

	rr := env.get(t, "/search?q=golang")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "golang 入门")
	assert.Equal(t, 1, env.upstream.callsTo("keyword=golang"))
	assert.Equal(t, 1, env.upstream.callsTo("page=0"), "search pagination is 0-based")
}

func TestSearchUserModeRequiresNumericID(t *testing.T) {
	env := setupTestEnv(t)
	env.upstream.serveProfile(adminProfile())
	env.loginAsAdmin(t)

	rr := env.get(t, "/search?mode=user&q=notanumber")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "用户搜索需要数字 ID")
	assert.Equal(t, 0, env.upstream.callsTo("/api/search"))
}

func TestDashboardDegradedNotice(t *testing.T) {
	env := setupTestEnv(t)
	env.upstream.serveProfile(adminProfile())
	env.upstream.handle("/api/analytics/dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	env.upstream.handle("/api/analytics/dashboard/top-posts", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, []map[string]any{})
	})
	env.upstream.handle("/api/core/admin/posts", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, models.PageResult[models.Post]{Total: 7, Pages: 7, Current: 1, Size: 1})
	})
	env.loginAsAdmin(t)

	rr := env.get(t, "/dashboard")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "降级数据")
	assert.Contains(t, rr.Body.String(), "21", "degraded total should sum the three status counts")
}

func TestPostDetailUnpacksMedia(t *testing.T) {
	env := setupTestEnv(t)
	env.upstream.serveProfile(adminProfile())
	env.upstream.handle("/api/core/posts/5", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, models.Post{
			ID:         5,
			Title:      "图文帖",
			AuthorName: "小明",
			Status:     0,
			ImageURLs:  `["https://cdn.example.com/a.jpg","https://cdn.example.com/b.jpg"]`,
			Tags:       "生活,随笔",
		})
	})
	env.loginAsAdmin(t)

	rr := env.get(t, "/posts/5")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "https://cdn.example.com/a.jpg")
	assert.Contains(t, body, "https://cdn.example.com/b.jpg")
	assert.Contains(t, body, "生活")
	assert.Contains(t, body, "随笔")
	assert.Contains(t, body, "待审核")
}

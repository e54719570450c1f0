// sqadmin/backend/search.go
package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"sqadmin/models"
)

// SearchPosts runs a keyword query against the search index. The search
// family pages from 0, unlike the CRUD endpoints.
func (c *Client) SearchPosts(ctx context.Context, keyword string, page, size int) (models.SearchPageResult[models.PostDoc], error) {
	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))
	return call[models.SearchPageResult[models.PostDoc]](ctx, c, "search_posts", http.MethodGet,
		"/api/search/posts?"+params.Encode(), nil)
}

// SearchUserPosts lists one author's indexed posts.
func (c *Client) SearchUserPosts(ctx context.Context, userID int64, page, size int) (models.SearchPageResult[models.PostDoc], error) {
	params := url.Values{}
	params.Set("userId", strconv.FormatInt(userID, 10))
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))
	return call[models.SearchPageResult[models.PostDoc]](ctx, c, "search_user_posts", http.MethodGet,
		"/api/search/user/posts?"+params.Encode(), nil)
}

// sqadmin/backend/posts.go
package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"sqadmin/models"
)

// listQuery builds the CRUD family's 1-based pagination query. A nil status
// means "all": the parameter is omitted entirely, not sent as a sentinel.
func listQuery(current, size int, status *int) string {
	params := url.Values{}
	params.Set("current", strconv.Itoa(current))
	params.Set("size", strconv.Itoa(size))
	if status != nil {
		params.Set("status", strconv.Itoa(*status))
	}
	return params.Encode()
}

// ListPosts fetches one page of the moderation queue, optionally filtered by
// audit status.
func (c *Client) ListPosts(ctx context.Context, current, size int, status *int) (models.PageResult[models.Post], error) {
	path := "/api/core/admin/posts?" + listQuery(current, size, status)
	return call[models.PageResult[models.Post]](ctx, c, "list_posts", http.MethodGet, path, nil)
}

// PostDetail fetches a single post.
func (c *Client) PostDetail(ctx context.Context, id int64) (models.Post, error) {
	return call[models.Post](ctx, c, "post_detail", http.MethodGet, fmt.Sprintf("/api/core/posts/%d", id), nil)
}

// AuditPost approves (pass=true) or rejects (pass=false) a post. The upstream
// answers with a human-readable message.
func (c *Client) AuditPost(ctx context.Context, id int64, pass bool) (string, error) {
	path := fmt.Sprintf("/api/core/admin/posts/%d/audit?pass=%t", id, pass)
	return call[string](ctx, c, "audit_post", http.MethodPost, path, nil)
}

// DeletePost removes a post permanently.
func (c *Client) DeletePost(ctx context.Context, id int64) (string, error) {
	path := fmt.Sprintf("/api/core/admin/posts/%d", id)
	return call[string](ctx, c, "delete_post", http.MethodDelete, path, nil)
}

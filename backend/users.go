// sqadmin/backend/users.go
package backend

import (
	"context"
	"fmt"
	"net/http"

	"sqadmin/models"
)

// ListUsers fetches one page of accounts, optionally filtered by status.
func (c *Client) ListUsers(ctx context.Context, current, size int, status *int) (models.PageResult[models.Profile], error) {
	path := "/api/identity/admin/users?" + listQuery(current, size, status)
	return call[models.PageResult[models.Profile]](ctx, c, "list_users", http.MethodGet, path, nil)
}

// BanUser bans an account. There is no unban operation upstream; the
// transition is one-way from this console's point of view.
func (c *Client) BanUser(ctx context.Context, id int64) (string, error) {
	path := fmt.Sprintf("/api/identity/admin/users/%d/ban", id)
	return call[string](ctx, c, "ban_user", http.MethodPost, path, nil)
}

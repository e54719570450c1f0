// sqadmin/backend/analytics.go
package backend

import (
	"context"
	"fmt"
	"net/http"

	"sqadmin/models"
)

// DashboardStats fetches the aggregate analytics summary, normalized at the
// boundary.
func (c *Client) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	raw, err := call[map[string]any](ctx, c, "dashboard_stats", http.MethodGet, "/api/analytics/dashboard/stats", nil)
	if err != nil {
		return models.DashboardStats{}, err
	}
	return NormalizeStats(raw), nil
}

// TopPosts fetches the ranked post list, normalized entry by entry.
func (c *Client) TopPosts(ctx context.Context) ([]models.TopPost, error) {
	raw, err := call[[]map[string]any](ctx, c, "top_posts", http.MethodGet, "/api/analytics/dashboard/top-posts", nil)
	if err != nil {
		return nil, err
	}
	posts := make([]models.TopPost, 0, len(raw))
	for _, entry := range raw {
		posts = append(posts, NormalizeTopPost(entry))
	}
	return posts, nil
}

// UserStats fetches one account's behavioral aggregates. The payload shape is
// not pinned down upstream, so it stays an open mapping.
func (c *Client) UserStats(ctx context.Context, userID int64) (map[string]any, error) {
	return call[map[string]any](ctx, c, "user_stats", http.MethodGet,
		fmt.Sprintf("/api/analytics/users/%d/stats", userID), nil)
}

// DegradedStats rebuilds the post-status counters from three sequential
// single-record list calls. It is the fallback when the analytics service is
// down, and it knowingly computes less: user, comment and like aggregates
// stay absent, and the result is flagged Degraded so views can say so.
func (c *Client) DegradedStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	stats.Degraded = true

	targets := []struct {
		status int
		dest   **int64
	}{
		{models.PostStatusPending, &stats.PendingPosts},
		{models.PostStatusApproved, &stats.ApprovedPosts},
		{models.PostStatusRejected, &stats.RejectedPosts},
	}

	var total int64
	for _, t := range targets {
		status := t.status
		page, err := c.ListPosts(ctx, 1, 1, &status)
		if err != nil {
			return models.DashboardStats{}, fmt.Errorf("degraded stats for status %d: %w", status, err)
		}
		count := page.Total
		*t.dest = &count
		total += count
	}
	stats.TotalPosts = &total

	return stats, nil
}

// StatsWithFallback prefers the aggregate endpoint and falls back to the
// degraded summary when it fails for any reason.
func (c *Client) StatsWithFallback(ctx context.Context) (models.DashboardStats, error) {
	stats, err := c.DashboardStats(ctx)
	if err == nil {
		return stats, nil
	}
	c.logger.Warn("Aggregate stats unavailable, computing degraded summary", "error", err)
	return c.DegradedStats(ctx)
}

// sqadmin/backend/normalize.go
package backend

import (
	"strconv"

	"sqadmin/models"
)

// The analytics service has emitted both snake_case and camelCase keys across
// deployments, and numbers occasionally arrive as strings. Normalization
// happens once here, at the boundary, so no view ever looks up both spellings.

// statKeys maps each canonical counter to the spellings the backend has been
// seen to produce, in priority order.
var statKeys = map[string][]string{
	"totalUsers":     {"totalUsers", "total_users"},
	"activeUsers":    {"activeUsers", "active_users"},
	"activeUsers24h": {"activeUsers24h", "active_users_24h"},
	"bannedUsers":    {"bannedUsers", "banned_users"},
	"totalPosts":     {"totalPosts", "total_posts"},
	"pendingPosts":   {"pendingPosts", "pending_posts"},
	"approvedPosts":  {"approvedPosts", "approved_posts"},
	"rejectedPosts":  {"rejectedPosts", "rejected_posts"},
	"totalComments":  {"totalComments", "total_comments"},
	"totalLikes":     {"totalLikes", "total_likes"},
	"totalEvents":    {"totalEvents", "total_events"},
}

// topPostKeys is the same for the ranked-post entries.
var topPostKeys = map[string][]string{
	"id":        {"id", "postId", "post_id"},
	"title":     {"title"},
	"viewCount": {"viewCount", "view_count"},
	"likeCount": {"likeCount", "like_count"},
}

// NormalizeStats coalesces a raw analytics payload into the canonical
// summary. Recognized keys in either casing land on the typed counters;
// everything else passes through in Extra untouched. The function is
// idempotent: feeding it an already-canonical payload yields the same result.
func NormalizeStats(raw map[string]any) models.DashboardStats {
	var stats models.DashboardStats
	if len(raw) == 0 {
		return stats
	}

	fields := map[string]**int64{
		"totalUsers":     &stats.TotalUsers,
		"activeUsers":    &stats.ActiveUsers,
		"activeUsers24h": &stats.ActiveUsers24h,
		"bannedUsers":    &stats.BannedUsers,
		"totalPosts":     &stats.TotalPosts,
		"pendingPosts":   &stats.PendingPosts,
		"approvedPosts":  &stats.ApprovedPosts,
		"rejectedPosts":  &stats.RejectedPosts,
		"totalComments":  &stats.TotalComments,
		"totalLikes":     &stats.TotalLikes,
		"totalEvents":    &stats.TotalEvents,
	}

	recognized := make(map[string]bool)
	for canonical, aliases := range statKeys {
		for _, alias := range aliases {
			recognized[alias] = true
		}
		for _, alias := range aliases {
			if v, ok := raw[alias]; ok {
				if n, ok := coerceInt64(v); ok {
					*fields[canonical] = &n
					break
				}
			}
		}
	}

	for key, val := range raw {
		if !recognized[key] {
			if stats.Extra == nil {
				stats.Extra = make(map[string]any)
			}
			stats.Extra[key] = val
		}
	}
	return stats
}

// NormalizeTopPost coalesces one ranked-post entry.
func NormalizeTopPost(raw map[string]any) models.TopPost {
	var post models.TopPost

	recognized := make(map[string]bool)
	for _, aliases := range topPostKeys {
		for _, alias := range aliases {
			recognized[alias] = true
		}
	}

	for _, alias := range topPostKeys["id"] {
		if v, ok := raw[alias]; ok {
			if n, ok := coerceInt64(v); ok {
				post.ID = &n
				break
			}
		}
	}
	if v, ok := raw["title"]; ok {
		if s, ok := v.(string); ok {
			post.Title = s
		}
	}
	for _, alias := range topPostKeys["viewCount"] {
		if v, ok := raw[alias]; ok {
			if n, ok := coerceInt64(v); ok {
				post.ViewCount = n
				break
			}
		}
	}
	for _, alias := range topPostKeys["likeCount"] {
		if v, ok := raw[alias]; ok {
			if n, ok := coerceInt64(v); ok {
				post.LikeCount = n
				break
			}
		}
	}

	for key, val := range raw {
		if !recognized[key] {
			if post.Extra == nil {
				post.Extra = make(map[string]any)
			}
			post.Extra[key] = val
		}
	}
	return post
}

// coerceInt64 converts the JSON value shapes the backend produces for
// counters: numbers, and numeric-looking strings.
func coerceInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		if parsed, err := strconv.ParseInt(n, 10, 64); err == nil {
			return parsed, true
		}
		if parsed, err := strconv.ParseFloat(n, 64); err == nil {
			return int64(parsed), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// sqadmin/models/models.go
package models

// --- Platform Records ---
//
// These mirror the remote platform API's JSON records. The gateway holds no
// identity of its own for them; they live only as long as the current page's
// cache entry.

// Profile is the identity service's view of an account, replaced wholesale on
// each refresh.
type Profile struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	Nickname        string `json:"nickname"`
	Avatar          string `json:"avatar"`
	Signature       string `json:"signature"`
	Role            string `json:"role"`
	Status          int    `json:"status"`
	FollowerCount   int64  `json:"followerCount"`
	FollowingCount  int64  `json:"followingCount"`
	TotalLikedCount int64  `json:"totalLikedCount"`
	PostCount       int64  `json:"postCount"`
	CreateTime      string `json:"createTime"`
}

// Post is the content service's record. Media and tag fields arrive as either
// a JSON array string or a comma-separated string; use utils.ParseStringList.
type Post struct {
	ID            int64    `json:"id"`
	AuthorID      int64    `json:"authorId"`
	AuthorName    string   `json:"authorName"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	SectionID     int64    `json:"sectionId"`
	Status        int      `json:"status"`
	LikeCount     int64    `json:"likeCount"`
	CommentCount  int64    `json:"commentCount"`
	FavoriteCount int64    `json:"favoriteCount"`
	ViewCount     int64    `json:"viewCount"`
	CreateTime    string   `json:"createTime"`
	UpdateTime    string   `json:"updateTime"`
	ImageURLs     string   `json:"imageUrls"`
	VideoURL      *string  `json:"videoUrl"`
	VideoCoverURL *string  `json:"videoCoverUrl"`
	VideoDuration *float64 `json:"videoDuration"`
	Tags          string   `json:"tags"`
}

// PostDoc is the search service's indexed document. IDs are strings and
// timestamps are epoch milliseconds, unlike the content service.
type PostDoc struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	AuthorName    string `json:"authorName"`
	AuthorID      int64  `json:"authorId"`
	ImageURLs     string `json:"imageUrls"`
	SectionID     int64  `json:"sectionId"`
	Status        int    `json:"status"`
	LikeCount     int64  `json:"likeCount"`
	CommentCount  int64  `json:"commentCount"`
	FavoriteCount int64  `json:"favoriteCount"`
	ViewCount     int64  `json:"viewCount"`
	CreateTime    int64  `json:"createTime"`
}

// PageResult is the CRUD endpoints' page envelope: 1-based current page.
type PageResult[T any] struct {
	Records []T   `json:"records"`
	Total   int64 `json:"total"`
	Size    int   `json:"size"`
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
}

// SearchPageResult is the search endpoints' page envelope: 0-based page
// number. The two families are distinct backend contracts; do not unify them.
type SearchPageResult[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
}

// DashboardStats is the normalized analytics summary. Any counter may be
// absent (nil) and must render as a placeholder. Extra carries unrecognized
// backend fields through opaquely.
type DashboardStats struct {
	TotalUsers     *int64
	ActiveUsers    *int64
	ActiveUsers24h *int64
	BannedUsers    *int64
	TotalPosts     *int64
	PendingPosts   *int64
	ApprovedPosts  *int64
	RejectedPosts  *int64
	TotalComments  *int64
	TotalLikes     *int64
	TotalEvents    *int64
	Extra          map[string]any

	// Degraded marks a summary computed from paginated post counts because
	// the aggregate analytics endpoint was unavailable. Only the post-status
	// counters are populated in that mode.
	Degraded bool
}

// TopPost is a normalized entry of the dashboard's ranked post list.
type TopPost struct {
	ID        *int64
	Title     string
	ViewCount int64
	LikeCount int64
	Extra     map[string]any
}

// --- Status Enums ---

// Post audit states as the content service defines them.
const (
	PostStatusPending  = 0
	PostStatusApproved = 1
	PostStatusRejected = 2
)

// User account states as the identity service defines them.
const (
	UserStatusNormal = 0
	UserStatusBanned = 1
)

// PostStatusLabel maps an audit status to its display label. Values the
// content service has not defined render as 未知 rather than failing.
func PostStatusLabel(status int) string {
	switch status {
	case PostStatusPending:
		return "待审核"
	case PostStatusApproved:
		return "已通过"
	case PostStatusRejected:
		return "已拒绝"
	default:
		return "未知"
	}
}

// UserStatusLabel maps a user status to its display label.
func UserStatusLabel(status int) string {
	switch status {
	case UserStatusNormal:
		return "正常"
	case UserStatusBanned:
		return "已封禁"
	default:
		return "未知"
	}
}

// IsAdminRole reports whether a role grants console access. The identity
// service emits both casings depending on the code path that wrote the row.
func IsAdminRole(role string) bool {
	return role == "admin" || role == "ADMIN"
}

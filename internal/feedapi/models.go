// SPDX-License-Identifier: AGPL-3.0-only
package feedapi

import (
	"strings"
	"time"
)

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Bio          string `json:"bio,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

type Post struct {
	ID        int    `json:"id"`
	UserID    int    `json:"user_id"`
	ImageURL  string `json:"image_url"`
	Caption   string `json:"caption"`
	CreatedAt string `json:"created_at"`
}

// FeedPost is a post joined with its author by the API.
type FeedPost struct {
	Post
	Username     string `json:"username"`
	Email        string `json:"email"`
	Bio          string `json:"bio,omitempty"`
	ProfileImage string `json:"profile_image"`
}

type Comment struct {
	ID        int    `json:"id"`
	PostID    int    `json:"post_id"`
	UserID    int    `json:"user_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type NewComment struct {
	UserID  int    `json:"user_id"`
	PostID  int    `json:"post_id"`
	Content string `json:"content"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	ID        int    `json:"id"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05",
}

// ParseTimestamp accepts the timestamp shapes the API has been seen to emit.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatLocal renders a timestamp in loc, or returns it untouched when it
// cannot be parsed.
func FormatLocal(s string, loc *time.Location) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return s
	}
	return t.In(loc).Format("1/2/2006, 3:04:05 PM")
}

// SPDX-License-Identifier: AGPL-3.0-only

// Package session stores the browser-side state of a user in a signed cookie:
// the API token, the user id, the colour mode and the comment cache key.
package session

import (
	"fmt"
	"net/http"

	"github.com/fluffyriot/notbadfeed/internal/theme"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const CookieName = "notbadfeed"

const (
	keyToken  = "token"
	keyUserID = "user_id"
	keyTheme  = "theme"
	keySID    = "sid"
)

func NewStore(authKey, encKey []byte, secure bool) sessions.Store {
	var store cookie.Store
	if len(encKey) > 0 {
		store = cookie.NewStore(authKey, encKey)
	} else {
		store = cookie.NewStore(authKey)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

func Middleware(store sessions.Store) gin.HandlerFunc {
	return sessions.Sessions(CookieName, store)
}

func Token(c *gin.Context) string {
	tok, _ := sessions.Default(c).Get(keyToken).(string)
	return tok
}

func UserID(c *gin.Context) int {
	id, _ := sessions.Default(c).Get(keyUserID).(int)
	return id
}

func SetLogin(c *gin.Context, token string, userID int) error {
	s := sessions.Default(c)
	s.Set(keyToken, token)
	s.Set(keyUserID, userID)
	return s.Save()
}

// ClearToken forgets the token but keeps the user id and colour mode.
func ClearToken(c *gin.Context) error {
	s := sessions.Default(c)
	s.Delete(keyToken)
	return s.Save()
}

func Theme(c *gin.Context) theme.Mode {
	m, _ := sessions.Default(c).Get(keyTheme).(string)
	return theme.Parse(m)
}

func SetTheme(c *gin.Context, m theme.Mode) error {
	s := sessions.Default(c)
	s.Set(keyTheme, string(m))
	return s.Save()
}

// SessionID returns the comment cache key, minting one on first use.
func SessionID(c *gin.Context) (string, error) {
	s := sessions.Default(c)
	if sid, ok := s.Get(keySID).(string); ok && sid != "" {
		return sid, nil
	}
	sid := uuid.NewString()
	s.Set(keySID, sid)
	if err := s.Save(); err != nil {
		return "", fmt.Errorf("failed to save session id: %w", err)
	}
	return sid, nil
}

func flashKey(postID int) string {
	return fmt.Sprintf("comment_error_%d", postID)
}

func AddCommentError(c *gin.Context, postID int, msg string) error {
	s := sessions.Default(c)
	s.AddFlash(msg, flashKey(postID))
	return s.Save()
}

// CommentErrors pops the pending error for each post. Posts without one are
// left out of the result. The messages are returned even when saving the
// popped session fails.
func CommentErrors(c *gin.Context, postIDs []int) (map[int]string, error) {
	s := sessions.Default(c)
	out := make(map[int]string)
	popped := false
	for _, id := range postIDs {
		flashes := s.Flashes(flashKey(id))
		if len(flashes) == 0 {
			continue
		}
		popped = true
		if msg, ok := flashes[len(flashes)-1].(string); ok {
			out[id] = msg
		}
	}
	if popped {
		if err := s.Save(); err != nil {
			return out, fmt.Errorf("failed to save popped flashes: %w", err)
		}
	}
	return out, nil
}

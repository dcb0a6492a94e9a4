// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fluffyriot/notbadfeed/internal/feed"
	"github.com/fluffyriot/notbadfeed/internal/session"
	"github.com/gin-gonic/gin"
)

func postAnchor(postID int) string {
	return fmt.Sprintf("/landing#post-%d", postID)
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid %s", name)
		return 0, false
	}
	return v, true
}

// afterCommentAction turns a service error into a flash for the post and
// redirects back to it.
func (h *Handler) afterCommentAction(c *gin.Context, postID int, err error) {
	if err != nil {
		msg := err.Error()
		switch {
		case errors.Is(err, feed.ErrEmptyComment),
			errors.Is(err, feed.ErrPostComment),
			errors.Is(err, feed.ErrDeleteComment):
		default:
			h.Logger.ErrorContext(c.Request.Context(), "comment action failed", slog.Int("post_id", postID), slog.String("error", msg))
			c.String(http.StatusInternalServerError, "comment cache unavailable")
			return
		}
		if ferr := session.AddCommentError(c, postID, msg); ferr != nil {
			h.Logger.ErrorContext(c.Request.Context(), "failed to save flash", slog.String("error", ferr.Error()))
		}
	}
	c.Redirect(http.StatusSeeOther, postAnchor(postID))
}

func (h *Handler) ToggleCommentsHandler(c *gin.Context) {
	postID, ok := intParam(c, "postID")
	if !ok {
		return
	}

	sid, err := session.SessionID(c)
	if err == nil {
		err = h.Feed.ToggleComments(c.Request.Context(), sid, postID)
	}
	h.afterCommentAction(c, postID, err)
}

func (h *Handler) CreateCommentHandler(c *gin.Context) {
	postID, ok := intParam(c, "postID")
	if !ok {
		return
	}

	sid, err := session.SessionID(c)
	if err == nil {
		err = h.Feed.AddComment(c.Request.Context(), sid, session.UserID(c), postID, c.PostForm("content"))
	}
	h.afterCommentAction(c, postID, err)
}

func (h *Handler) DeleteCommentHandler(c *gin.Context) {
	postID, ok := intParam(c, "postID")
	if !ok {
		return
	}
	commentID, ok := intParam(c, "commentID")
	if !ok {
		return
	}

	sid, err := session.SessionID(c)
	if err == nil {
		err = h.Feed.DeleteComment(c.Request.Context(), sid, postID, commentID)
	}
	h.afterCommentAction(c, postID, err)
}

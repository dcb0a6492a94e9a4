// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/fluffyriot/notbadfeed/internal/commentcache"
	"github.com/fluffyriot/notbadfeed/internal/feedapi"
	"github.com/fluffyriot/notbadfeed/internal/session"
	"github.com/gin-gonic/gin"
)

type CommentView struct {
	feedapi.Comment
	CanDelete bool
}

type PostView struct {
	Post     feedapi.FeedPost
	Visible  bool
	Comments []CommentView
	Error    string
}

func buildPostViews(posts []feedapi.FeedPost, st *commentcache.State, errs map[int]string, currentUser int) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		v := PostView{
			Post:  p,
			Error: errs[p.ID],
		}
		if st.IsVisible(p.ID) && st.Cached(p.ID) {
			v.Visible = true
			for _, cm := range st.List(p.ID) {
				v.Comments = append(v.Comments, CommentView{
					Comment:   cm,
					CanDelete: cm.UserID == currentUser,
				})
			}
		}
		views = append(views, v)
	}
	return views
}

func (h *Handler) LandingHandler(c *gin.Context) {
	ctx := c.Request.Context()
	userID := session.UserID(c)

	data := gin.H{"title": "Feed"}

	posts, err := h.Feed.LoadFeed(ctx, userID)
	if err != nil {
		data["error"] = err.Error()
	}

	st := commentcache.NewState()
	if sid, err := session.SessionID(c); err != nil {
		h.Logger.ErrorContext(ctx, "failed to resolve session id", slog.String("error", err.Error()))
	} else {
		st = h.Feed.View(ctx, sid)
	}

	ids := make([]int, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	errs, err := session.CommentErrors(c, ids)
	if err != nil {
		h.Logger.ErrorContext(ctx, "failed to clear comment errors", slog.String("error", err.Error()))
	}

	data["posts"] = buildPostViews(posts, st, errs, userID)

	c.HTML(http.StatusOK, "landing.html", h.CommonData(c, data))
}

// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/fluffyriot/notbadfeed/internal/feed"
	"github.com/fluffyriot/notbadfeed/internal/session"
	"github.com/gin-gonic/gin"
)

func (h *Handler) LoginViewHandler(c *gin.Context) {
	if session.Token(c) != "" {
		c.Redirect(http.StatusFound, "/landing")
		return
	}

	c.HTML(http.StatusOK, "login.html", h.CommonData(c, gin.H{
		"title": "Login",
	}))
}

func (h *Handler) LoginSubmitHandler(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	resp, err := h.Feed.Login(c.Request.Context(), email, password)
	if err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", h.CommonData(c, gin.H{
			"title": "Login",
			"error": err.Error(),
			"email": email,
		}))
		return
	}

	if err := session.SetLogin(c, resp.Token, resp.ID); err != nil {
		h.Logger.ErrorContext(c.Request.Context(), "failed to save session", slog.String("error", err.Error()))
		c.HTML(http.StatusInternalServerError, "login.html", h.CommonData(c, gin.H{
			"title": "Login",
			"error": feed.ErrLogin.Error(),
			"email": email,
		}))
		return
	}

	c.Redirect(http.StatusFound, "/landing")
}

func (h *Handler) LogoutHandler(c *gin.Context) {
	ctx := c.Request.Context()

	if sid, err := session.SessionID(c); err == nil {
		if err := h.Feed.Forget(ctx, sid); err != nil {
			h.Logger.WarnContext(ctx, "failed to drop comment cache", slog.String("error", err.Error()))
		}
	}

	if err := session.ClearToken(c); err != nil {
		h.Logger.ErrorContext(ctx, "failed to clear session", slog.String("error", err.Error()))
	}
	c.Redirect(http.StatusFound, "/")
}

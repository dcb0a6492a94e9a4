// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/fluffyriot/notbadfeed/internal/session"
	"github.com/gin-gonic/gin"
)

// themeReturnPaths are the pages that carry the theme toggle.
var themeReturnPaths = map[string]bool{
	"/":        true,
	"/login":   true,
	"/landing": true,
}

func (h *Handler) ThemeToggleHandler(c *gin.Context) {
	if err := session.SetTheme(c, session.Theme(c).Toggle()); err != nil {
		h.Logger.ErrorContext(c.Request.Context(), "failed to save theme", slog.String("error", err.Error()))
	}
	c.Redirect(http.StatusSeeOther, backTo(c.Request.Referer()))
}

// backTo returns the Referer's path when it is one of our pages, else "/".
func backTo(referer string) string {
	u, err := url.Parse(referer)
	if err != nil || !themeReturnPaths[u.Path] {
		return "/"
	}
	return u.Path
}

// SPDX-License-Identifier: AGPL-3.0-only
package api

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/fluffyriot/notbadfeed/internal/api/handlers"
	"github.com/fluffyriot/notbadfeed/internal/logging"
	"github.com/fluffyriot/notbadfeed/internal/middleware"
	"github.com/fluffyriot/notbadfeed/internal/session"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	Handler   *handlers.Handler
	Store     sessions.Store
	Templates *template.Template
	Static    fs.FS
	Logger    *slog.Logger
	TLS       bool
}

func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.RequestLogger(opts.Logger))
	r.Use(middleware.SecurityHeadersMiddleware(opts.TLS))

	r.SetHTMLTemplate(opts.Templates)
	r.StaticFS("/static", http.FS(opts.Static))

	h := opts.Handler

	r.GET("/health", h.HealthCheckHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	app := r.Group("/")
	app.Use(session.Middleware(opts.Store))
	app.Use(middleware.APITokenMiddleware())
	{
		app.GET("/", h.LoginViewHandler)
		app.GET("/login", h.LoginViewHandler)
		app.POST("/login", h.LoginSubmitHandler)
		app.POST("/logout", h.LogoutHandler)

		app.GET("/landing", h.LandingHandler)
		app.POST("/posts/:postID/toggle-comments", h.ToggleCommentsHandler)
		app.POST("/posts/:postID/comments", h.CreateCommentHandler)
		app.POST("/posts/:postID/comments/:commentID/delete", h.DeleteCommentHandler)

		app.POST("/theme/toggle", h.ThemeToggleHandler)
	}

	return r
}

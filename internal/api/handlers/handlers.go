// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"log/slog"

	"github.com/fluffyriot/notbadfeed/internal/config"
	"github.com/fluffyriot/notbadfeed/internal/feed"
	"github.com/fluffyriot/notbadfeed/internal/session"
	"github.com/fluffyriot/notbadfeed/internal/theme"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	Feed   *feed.Service
	Config *config.AppConfig
	Logger *slog.Logger
}

func NewHandler(svc *feed.Service, cfg *config.AppConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Feed:   svc,
		Config: cfg,
		Logger: logger,
	}
}

// CommonData adds what every page layout needs to data.
func (h *Handler) CommonData(c *gin.Context, data gin.H) gin.H {
	mode := session.Theme(c)
	data["mode"] = string(mode)
	data["palette"] = theme.Palette(mode)
	data["app_version"] = config.AppVersion
	return data
}

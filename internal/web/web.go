// SPDX-License-Identifier: AGPL-3.0-only

// Package web embeds the HTML templates and the stylesheet.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"time"

	"github.com/fluffyriot/notbadfeed/internal/feedapi"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

func Funcs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"localTime": func(s string) string {
			return feedapi.FormatLocal(s, loc)
		},
	}
}

func Templates(loc *time.Location) (*template.Template, error) {
	return template.New("").Funcs(Funcs(loc)).ParseFS(templateFS, "templates/*.html")
}

func Static() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}

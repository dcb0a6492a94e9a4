// SPDX-License-Identifier: AGPL-3.0-only
package middleware

import (
	"github.com/fluffyriot/notbadfeed/internal/feedapi"
	"github.com/fluffyriot/notbadfeed/internal/session"
	"github.com/gin-gonic/gin"
)

// APITokenMiddleware puts the session's bearer token on the request context
// so every feed API call made while serving the request carries it. Routes
// are not guarded: without a token the API answers and the page shows the
// failure.
func APITokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := session.Token(c); tok != "" {
			c.Request = c.Request.WithContext(feedapi.WithToken(c.Request.Context(), tok))
		}
		c.Next()
	}
}

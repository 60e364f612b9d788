package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const APIVersionHeader = "X-API-Version"

// Headers sets the API version and caching policy. Reads may be cached
// privately for five minutes; everything else is no-store.
func Headers(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(APIVersionHeader, version)
		c.Header("X-Content-Type-Options", "nosniff")
		if c.Request.Method == http.MethodGet {
			c.Header("Cache-Control", "private, max-age=300")
		} else {
			c.Header("Cache-Control", "no-store")
		}
		c.Next()
	}
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Origin validates the Origin header against the configured allow-list and
// sets the CORS headers the website front-end needs for /api/*. An empty
// allow-list accepts everything (local development).
func Origin(allowed []string) gin.HandlerFunc {
	allow := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		allow[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && len(allow) > 0 {
			if _, ok := allow[origin]; !ok {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
		}
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

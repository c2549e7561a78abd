package governance

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const originContextKey = "governanceOrigin"

// Middleware extracts and validates the governance token on protected
// routes and stores the resulting Origin in the request context.
func Middleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing governance token"})
			return
		}
		origin, err := ParseOrigin(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(originContextKey, origin)
		c.Next()
	}
}

// OriginFrom returns the Origin stored by Middleware.
func OriginFrom(c *gin.Context) (Origin, bool) {
	v, ok := c.Get(originContextKey)
	if !ok {
		return Origin{}, false
	}
	origin, ok := v.(Origin)
	return origin, ok
}

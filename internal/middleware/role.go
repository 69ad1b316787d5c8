package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ontime/backend/pkg/response"
)

// RequireLecturer returns a middleware that allows only lecturers. Must run
// after JWT.
func RequireLecturer() gin.HandlerFunc {
	return func(c *gin.Context) {
		flag, ok := c.Get(ContextIsLecturer)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if isLecturer, _ := flag.(bool); !isLecturer {
			response.Forbidden(c, "Not authorized as a lecturer")
			c.Abort()
			return
		}
		c.Next()
	}
}

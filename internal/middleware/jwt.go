package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ontime/backend/internal/auth"
	"github.com/ontime/backend/pkg/response"
)

const (
	// ContextUserID is the key for the resolved user ID in gin context.
	ContextUserID = "user_id"
	// ContextIsLecturer is the key for the lecturer capability flag.
	ContextIsLecturer = "is_lecturer"
	// ContextUserEmail is the key for the user email.
	ContextUserEmail = "user_email"
)

// JWT returns a middleware that validates the bearer token and injects the
// resolved identity into the request context. Handlers downstream trust the
// injected identity and never authenticate directly.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "Not authorized, no token!")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "Not authorized, token failed!")
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextIsLecturer, claims.IsLecturer)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

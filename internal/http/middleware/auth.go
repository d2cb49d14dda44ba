package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/open-builders/giveaway-bot/internal/common/errors"
)

// RequireAdminToken checks "Authorization: Bearer <token>". An empty token
// disables the check.
func RequireAdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		got, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			Abort(c, errors.NewUnauthorizedError("missing or invalid admin token"))
			return
		}
		c.Next()
	}
}

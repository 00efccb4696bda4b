package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/performance-report-api/internal/models"
	appErrors "github.com/noah-isme/performance-report-api/pkg/errors"
	"github.com/noah-isme/performance-report-api/pkg/response"
)

// RequireRoles lets the request through only when the session role is listed.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		session, ok := SessionFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[session.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

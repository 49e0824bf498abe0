package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/uni-payroll/catams-api/internal/models"
	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
	"github.com/uni-payroll/catams-api/pkg/response"
)

// RequireRoles blocks requests whose token role is not in the allow list.
// Finer-grained, relationship-aware checks (course ownership, timesheet
// ownership) live in the services; this gate only trims the obvious cases.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrAuthorizationFailed)
			c.Abort()
			return
		}
		c.Next()
	}
}

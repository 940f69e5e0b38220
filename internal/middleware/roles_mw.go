package middleware

import (
	"errors"
	"net/http"

	"expense_tribute/internal/model"
	"expense_tribute/internal/repository"

	"github.com/gin-gonic/gin"
)

const msgAdminRequired = "Access denied. Admin privileges required."

// AdminMiddleware lets the request through when the authenticated user is an
// admin. It must run after JWTAuthMiddleware. The user record is loaded on
// every request so a granted or revoked flag applies immediately.
func AdminMiddleware(users repository.UserRepository, allowlist model.Allowlist) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgAdminRequired})
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgAdminRequired})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if !model.IsAdmin(user, allowlist) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgAdminRequired})
			return
		}

		c.Next()
	}
}

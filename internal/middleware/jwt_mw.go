package middleware

import (
	"net/http"
	"strings"

	"expense_tribute/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	AuthClaimsKey = "authClaims"
	AuthUserKey   = "authUser"
)

const (
	msgNoToken      = "Access denied. No token provided."
	msgInvalidToken = "Invalid token."
)

// JWTAuthMiddleware creates a middleware for JWT authentication.
// No token is 401; a token that fails verification is 403.
func JWTAuthMiddleware(jwtUtil *utils.JWTUtil) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, tokenString, _ := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
		tokenString = strings.TrimSpace(tokenString)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgNoToken})
			return
		}
		if !strings.EqualFold(scheme, "bearer") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgInvalidToken})
			return
		}

		claims, err := jwtUtil.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgInvalidToken})
			return
		}

		// Set user information in context
		c.Set(AuthClaimsKey, claims)
		c.Set(AuthUserKey, claims.UserID)

		c.Next()
	}
}

// GetClaims returns the claims stored by JWTAuthMiddleware.
func GetClaims(c *gin.Context) (*utils.JWTClaims, bool) {
	v, exists := c.Get(AuthClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*utils.JWTClaims)
	return claims, ok
}

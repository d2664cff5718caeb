package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"account_service/internal/logger"
	"account_service/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	AuthUserKey = "authUser"
	AuthRoleKey = "authRole"

	// SessionCookieName is the http-only cookie carrying the session token
	SessionCookieName = "token"
)

var ErrMalformedAuthHeader = errors.New("invalid authorization header format")

// SessionValidator verifies a session token and returns its claims
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*utils.JWTClaims, error)
}

// ExtractToken returns the session token of the request. A Bearer
// Authorization header wins over the session cookie; an empty string means
// the caller sent neither.
func ExtractToken(c *gin.Context) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			return "", ErrMalformedAuthHeader
		}
		return parts[1], nil
	}

	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", nil
}

// JWTAuthMiddleware creates a middleware for JWT authentication
func JWTAuthMiddleware(validator SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := ExtractToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}

		claims, err := validator.ValidateSession(c.Request.Context(), tokenString)
		if err != nil {
			if !errors.Is(err, utils.ErrInvalidToken) {
				logger.Errorf("Error validating session: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate session"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		// Set user information in context
		c.Set(AuthUserKey, claims.UserID)
		c.Set(AuthRoleKey, claims.Role)

		c.Next()
	}
}

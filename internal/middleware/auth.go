package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/service"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// ErrMissingAuthHeader indicates the Authorization header was absent.
var ErrMissingAuthHeader = errors.New("missing Authorization header")

// TokenValidator turns a bearer token into an authenticated identity.
// Implemented by service.AuthService.
type TokenValidator interface {
	Validate(token string) (service.Identity, error)
}

// Auth returns a middleware that verifies the bearer token and stores the
// caller's user id and role on the request context. Authentication
// failures are terminal: the request is rejected, never degraded.
func Auth(validator TokenValidator) gin.HandlerFunc {
	if validator == nil {
		panic("TokenValidator cannot be nil for Auth middleware")
	}

	return func(c *gin.Context) {
		tokenStr, err := extractToken(c)
		if err != nil {
			logrus.WithError(err).Warn("Auth middleware: could not extract token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header with bearer token is required"})
			c.Abort()
			return
		}

		identity, err := validator.Validate(tokenStr)
		if err != nil {
			logrus.WithError(err).Warn("Auth middleware: invalid token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Stored as a plain string: consumers read it with GetString and
		// convert back to domain.Role.
		c.Set(CtxUserID, identity.UserID)
		c.Set(CtxRole, string(identity.Role))
		logrus.WithFields(logrus.Fields{"user_id": identity.UserID, "role": identity.Role}).
			Debug("Auth middleware: user authenticated")
		c.Next()
	}
}

// extractToken pulls the bearer token from the Authorization header.
func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("malformed Authorization header")
	}
	return parts[1], nil
}

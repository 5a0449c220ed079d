package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/service"
)

// HandleServiceError translates a service sentinel into an HTTP response.
// Unknown errors are logged and answered with a generic 500 so internals
// never leak to the client.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	case errors.Is(err, service.ErrAuthenticationFailed):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
	case errors.Is(err, service.ErrRegistrationFailed):
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already in use"})
	case errors.Is(err, service.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, service.ErrRoomAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Room access denied"})
	case errors.Is(err, service.ErrTicketNotFound):
		c.JSON(http.StatusForbidden, gin.H{"error": "Connection pin not recognized"})
	case errors.Is(err, service.ErrTicketExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Connection pin expired"})
	case errors.Is(err, service.ErrNotInRoom):
		c.JSON(http.StatusConflict, gin.H{"error": "Connection is not attached to a room"})
	default:
		logrus.WithError(err).Error("Unhandled service error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// Package gateway is the websocket entry point into a room's live
// session. It authenticates, validates the optional connection PIN,
// upgrades the connection and hands it to the session registry.
package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/middleware"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/relay"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/service"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/session"
)

// Gateway upgrades authenticated requests into live room connections.
//
// Everything that can be rejected cheaply is rejected before the upgrade
// (missing room, bad PIN); only the membership decision runs after, since
// its denial must reach the client as a websocket close frame the browser
// can read.
type Gateway struct {
	registry *session.Registry
	router   *relay.Router
	rooms    *service.RoomService
	tickets  *service.TicketService
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

// NewGateway creates a Gateway.
func NewGateway(registry *session.Registry, router *relay.Router, rooms *service.RoomService, tickets *service.TicketService) *Gateway {
	if registry == nil || router == nil || rooms == nil || tickets == nil {
		panic("Gateway dependencies cannot be nil")
	}
	return &Gateway{
		registry: registry,
		router:   router,
		rooms:    rooms,
		tickets:  tickets,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients and the HoloLens viewer connect from
			// their own origins; access control happens via JWT + PIN.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: logrus.WithField("component", "room_gateway"),
	}
}

// HandleConnection serves GET /ws/room/:roomId?pin=123456. The caller is
// already authenticated by the Auth middleware; the PIN is only required
// for users who are not on the room's member list, but when one is
// presented it is always validated.
func (g *Gateway) HandleConnection(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	role := domain.Role(c.GetString(middleware.CtxRole))
	roomID := c.Param("roomId")
	pin := c.Query("pin")

	logCtx := g.log.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	exists, err := g.rooms.RoomExists(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve room"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	if pin != "" {
		switch err := g.tickets.ValidateTicket(c.Request.Context(), pin, roomID); {
		case errors.Is(err, service.ErrTicketExpired):
			c.JSON(http.StatusGone, gin.H{"error": "Connection pin expired"})
			return
		case errors.Is(err, service.ErrTicketNotFound):
			c.JSON(http.StatusForbidden, gin.H{"error": "Connection pin not recognized"})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate connection pin"})
			return
		}
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logCtx.WithError(err).Error("Websocket upgrade failed")
		return
	}

	client := newClient(conn, g.registry, g.router)
	participant, err := g.registry.Join(c.Request.Context(), roomID, userID, role, client)
	if err != nil {
		g.rejectAfterUpgrade(conn, err, logCtx)
		return
	}
	client.participant = participant

	if err := g.router.ReplayStateTo(participant.ConnectionID); err != nil {
		// Only possible if the connection already left; nothing to do.
		logCtx.WithError(err).Warn("State replay skipped")
	}
	client.run()
}

// rejectAfterUpgrade tells an already-upgraded client why it was turned
// away, with a policy-violation close frame it can surface to the user.
func (g *Gateway) rejectAfterUpgrade(conn *websocket.Conn, joinErr error, logCtx *logrus.Entry) {
	reason := "Join rejected"
	switch {
	case errors.Is(joinErr, service.ErrRoomAccessDenied):
		reason = "Room access denied"
	case errors.Is(joinErr, service.ErrRoomNotFound):
		reason = "Room not found"
	}
	logCtx.WithError(joinErr).Info("Websocket join rejected")

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
	conn.Close()
}

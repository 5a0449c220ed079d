package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/middleware"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/service"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/session"
)

// ConnectionHandler serves connection tickets and live session reads.
type ConnectionHandler struct {
	tickets  *service.TicketService
	rooms    *service.RoomService
	registry *session.Registry
}

// NewConnectionHandler creates a ConnectionHandler.
func NewConnectionHandler(tickets *service.TicketService, rooms *service.RoomService, registry *session.Registry) *ConnectionHandler {
	if tickets == nil || rooms == nil || registry == nil {
		panic("ConnectionHandler dependencies cannot be nil")
	}
	return &ConnectionHandler{tickets: tickets, rooms: rooms, registry: registry}
}

// IssueTicket handles POST /api/rooms/:roomId/connections. Only users who
// could themselves enter the room may hand out its PIN.
func (h *ConnectionHandler) IssueTicket(c *gin.Context) {
	roomID := c.Param("roomId")
	userID := c.GetString(middleware.CtxUserID)
	role := domain.Role(c.GetString(middleware.CtxRole))

	if err := h.rooms.CanJoin(c.Request.Context(), userID, role, roomID); err != nil {
		HandleServiceError(c, err)
		return
	}

	ticket, err := h.tickets.IssueTicket(c.Request.Context(), roomID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         ticket.ID,
		"roomId":     ticket.RoomID,
		"pinCode":    ticket.PinCode,
		"validUntil": ticket.ValidUntil,
	})
}

// ListParticipants handles GET /api/rooms/:roomId/participants and returns
// the room's live participants in join order. A room with no live session
// answers with an empty list, not an error.
func (h *ConnectionHandler) ListParticipants(c *gin.Context) {
	roomID := c.Param("roomId")

	exists, err := h.rooms.RoomExists(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if !exists {
		HandleServiceError(c, service.ErrRoomNotFound)
		return
	}

	participants := h.registry.ListParticipants(roomID)
	if participants == nil {
		participants = []session.ParticipantInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"roomId": roomID, "participants": participants})
}

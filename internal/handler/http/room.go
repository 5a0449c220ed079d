package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/middleware"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/service"
)

// RoomHandler serves room management endpoints.
type RoomHandler struct {
	rooms *service.RoomService
}

// NewRoomHandler creates a RoomHandler.
func NewRoomHandler(rooms *service.RoomService) *RoomHandler {
	if rooms == nil {
		panic("RoomService cannot be nil for RoomHandler")
	}
	return &RoomHandler{rooms: rooms}
}

type createRoomRequest struct {
	Name       string   `json:"name" binding:"required,min=1,max=100"`
	PatientID  *string  `json:"patientId"`
	MemberIDs  []string `json:"memberIds"`
	ModelFiles []string `json:"modelFiles"`
}

// CreateRoom handles POST /api/rooms. The authenticated caller becomes
// the room's creator and is always on the member list.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room payload: " + err.Error()})
		return
	}

	creatorID := c.GetString(middleware.CtxUserID)
	room, err := h.rooms.CreateRoom(c.Request.Context(), creatorID, req.Name, req.PatientID, req.MemberIDs, req.ModelFiles)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"room_id": room.ID, "creator_id": creatorID}).
		Info("Room created via API")
	c.JSON(http.StatusCreated, room)
}

// GetRoom handles GET /api/rooms/:roomId.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.rooms.GetRoom(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

type addMemberRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// AddMember handles POST /api/rooms/:roomId/members.
func (h *RoomHandler) AddMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	roomID := c.Param("roomId")
	if err := h.rooms.AddMember(c.Request.Context(), roomID, req.UserID); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": roomID, "userId": req.UserID})
}

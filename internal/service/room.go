package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/repository"
)

// RoomService handles room management and the membership reads the live
// session layer consults on join.
type RoomService struct {
	roomRepo repository.RoomRepository
}

// NewRoomService creates a RoomService.
func NewRoomService(roomRepo repository.RoomRepository) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	return &RoomService{roomRepo: roomRepo}
}

// CreateRoom creates a room owned by creatorID. The creator is always on
// the member list; memberIDs and model file names are optional.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID, name string, patientID *string, memberIDs []string, modelFiles []string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"creator_id": creatorID, "room_name": name})

	room := &domain.Room{
		ID:        uuid.NewString(),
		Name:      name,
		CreatorID: creatorID,
		PatientID: patientID,
	}
	room.Members = append(room.Members, domain.RoomMember{RoomID: room.ID, UserID: creatorID})
	for _, id := range memberIDs {
		if id == creatorID {
			continue
		}
		room.Members = append(room.Members, domain.RoomMember{RoomID: room.ID, UserID: id})
	}
	for i, file := range modelFiles {
		room.ModelFiles = append(room.ModelFiles, domain.ModelFile{
			ID:       uuid.NewString(),
			RoomID:   room.ID,
			FileName: file,
			Position: i,
		})
	}

	if err := s.roomRepo.Save(ctx, room); err != nil {
		logCtx.WithError(err).Error("Failed to save new room")
		return nil, ErrInternalServer
	}
	logCtx.WithField("room_id", room.ID).Info("Room created")
	return room, nil
}

// GetRoom fetches a room with members and model files.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to load room")
		return nil, ErrInternalServer
	}
	return room, nil
}

// RoomExists reports whether the room exists, without loading it.
func (s *RoomService) RoomExists(ctx context.Context, roomID string) (bool, error) {
	exists, err := s.roomRepo.Exists(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to check room existence")
		return false, ErrInternalServer
	}
	return exists, nil
}

// AddMember puts a user on the room's authorized member list.
func (s *RoomService) AddMember(ctx context.Context, roomID, userID string) error {
	exists, err := s.roomRepo.Exists(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to check room existence")
		return ErrInternalServer
	}
	if !exists {
		return ErrRoomNotFound
	}
	if err := s.roomRepo.AddMember(ctx, roomID, userID); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).
			Error("Failed to add room member")
		return ErrInternalServer
	}
	return nil
}

// CanJoin decides whether a user may attach to a room's live session:
// admins and system accounts may enter any room, everyone else must be the
// creator or on the member list. Returns ErrRoomNotFound or
// ErrRoomAccessDenied accordingly. This is the one membership read the
// session registry performs, and the only blocking call on the join path.
func (s *RoomService) CanJoin(ctx context.Context, userID string, role domain.Role, roomID string) error {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID, "role": role})

	exists, err := s.roomRepo.Exists(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to check room existence")
		return ErrInternalServer
	}
	if !exists {
		return ErrRoomNotFound
	}

	if role.BypassesMembership() {
		return nil
	}

	member, err := s.roomRepo.IsMember(ctx, roomID, userID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to check room membership")
		return ErrInternalServer
	}
	if !member {
		logCtx.Debug("Room access denied: not a member")
		return ErrRoomAccessDenied
	}
	return nil
}

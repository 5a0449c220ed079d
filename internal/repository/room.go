package repository

import (
	"context"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
)

// RoomRepository stores rooms and their authorized member lists.
type RoomRepository interface {
	// FindByID returns the room with members and model files preloaded.
	// Returns ErrRoomNotFound when no such room exists.
	FindByID(ctx context.Context, id string) (*domain.Room, error)

	// Exists reports whether a room with the given id exists.
	Exists(ctx context.Context, id string) (bool, error)

	// Save creates or updates a room together with its associations.
	Save(ctx context.Context, room *domain.Room) error

	// AddMember puts a user on the room's authorized member list.
	// Adding an existing member is a no-op.
	AddMember(ctx context.Context, roomID, userID string) error

	// IsMember reports whether the user is on the member list or is the
	// room's creator.
	IsMember(ctx context.Context, roomID, userID string) (bool, error)
}

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/repository"
)

// TicketService issues and validates the PIN-bearing connection tickets
// gating entry into a room's live session.
type TicketService struct {
	ticketRepo repository.TicketRepository
	// lifetime is the validity window of a freshly issued ticket.
	lifetime time.Duration
	// now is swappable for tests.
	now func() time.Time
}

// NewTicketService creates a TicketService. lifetime falls back to 2h when
// non-positive.
func NewTicketService(ticketRepo repository.TicketRepository, lifetime time.Duration) *TicketService {
	if ticketRepo == nil {
		panic("TicketRepository cannot be nil for TicketService")
	}
	if lifetime <= 0 {
		lifetime = 2 * time.Hour
	}
	return &TicketService{
		ticketRepo: ticketRepo,
		lifetime:   lifetime,
		now:        time.Now,
	}
}

// IssueTicket creates a new ticket for the room with a fresh 6-digit PIN.
// Issuing does not invalidate earlier tickets; several valid tickets may
// coexist so access can be re-shared during a running session.
func (s *TicketService) IssueTicket(ctx context.Context, roomID, issuedBy string) (*domain.ConnectionTicket, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "issued_by": issuedBy})

	pin, err := s.generatePin(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate connection PIN")
		return nil, ErrInternalServer
	}

	now := s.now()
	ticket := &domain.ConnectionTicket{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		IssuedBy:   issuedBy,
		PinCode:    pin,
		CreatedAt:  now,
		ValidUntil: now.Add(s.lifetime),
	}
	if err := s.ticketRepo.Save(ctx, ticket); err != nil {
		logCtx.WithError(err).Error("Failed to save connection ticket")
		return nil, ErrInternalServer
	}

	logCtx.WithFields(logrus.Fields{"ticket_id": ticket.ID, "valid_until": ticket.ValidUntil}).
		Info("Connection ticket issued")
	return ticket, nil
}

// ValidateTicket checks a presented PIN against the room's outstanding
// tickets. Returns ErrTicketNotFound when no ticket with the PIN exists
// for the room and ErrTicketExpired when the freshest matching ticket has
// passed its validity window, so callers can tell the two apart.
func (s *TicketService) ValidateTicket(ctx context.Context, pin, roomID string) error {
	ticket, err := s.ticketRepo.FindByPin(ctx, roomID, pin)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return ErrTicketNotFound
		}
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to look up connection ticket")
		return ErrInternalServer
	}
	if ticket.Expired(s.now()) {
		return ErrTicketExpired
	}
	return nil
}

// generatePin draws random 6-digit PINs until one does not collide with a
// currently valid ticket of another room. Collisions within the same room
// are harmless; a PIN presented alone must not point at two rooms.
func (s *TicketService) generatePin(ctx context.Context, roomID string) (string, error) {
	const maxAttempts = 10

	buf := make([]byte, domain.PinLength)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate random bytes: %w", err)
		}
		for i := range buf {
			buf[i] = '0' + buf[i]%10
		}
		pin := string(buf)

		inUse, err := s.ticketRepo.PinInUse(ctx, pin, roomID, s.now())
		if err != nil {
			return "", fmt.Errorf("check pin uniqueness: %w", err)
		}
		if !inUse {
			return pin, nil
		}
		logrus.WithField("attempt", attempt+1).Debug("Generated PIN collides with a live ticket, retrying")
	}
	return "", fmt.Errorf("no collision-free pin after %d attempts", maxAttempts)
}

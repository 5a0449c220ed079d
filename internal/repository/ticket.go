package repository

import (
	"context"
	"time"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
)

// TicketRepository stores connection tickets. Tickets are small and
// short-lived; they live in the relational store next to rooms.
type TicketRepository interface {
	// Save persists a newly issued ticket.
	Save(ctx context.Context, ticket *domain.ConnectionTicket) error

	// FindByPin returns the ticket with the latest validity window
	// carrying the PIN for the given room, or ErrTicketNotFound. Expiry
	// is judged by the caller, which can then distinguish an expired PIN
	// from an unknown one.
	FindByPin(ctx context.Context, roomID, pin string) (*domain.ConnectionTicket, error)

	// PinInUse reports whether any currently valid ticket of a room other
	// than roomID carries the PIN. Used at issuance to keep a bare PIN
	// unambiguous across rooms.
	PinInUse(ctx context.Context, pin, excludeRoomID string, now time.Time) (bool, error)

	// DeleteExpired removes every ticket whose validity window elapsed
	// before now and returns the number of rows removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

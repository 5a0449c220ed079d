package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
)

// TicketRepository is a mock of repository.TicketRepository.
type TicketRepository struct {
	mock.Mock
}

func (m *TicketRepository) Save(ctx context.Context, ticket *domain.ConnectionTicket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *TicketRepository) FindByPin(ctx context.Context, roomID, pin string) (*domain.ConnectionTicket, error) {
	args := m.Called(ctx, roomID, pin)
	var ticket *domain.ConnectionTicket
	if args.Get(0) != nil {
		ticket = args.Get(0).(*domain.ConnectionTicket)
	}
	return ticket, args.Error(1)
}

func (m *TicketRepository) PinInUse(ctx context.Context, pin, excludeRoomID string, now time.Time) (bool, error) {
	args := m.Called(ctx, pin, excludeRoomID, now)
	return args.Bool(0), args.Error(1)
}

func (m *TicketRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

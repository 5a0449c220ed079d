package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/repository"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/repository/mocks"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/service"
)

func TestTicketService_IssueTicket_Success(t *testing.T) {
	mockTicketRepo := new(mocks.TicketRepository)
	ticketService := service.NewTicketService(mockTicketRepo, 2*time.Hour)

	mockTicketRepo.On("PinInUse", mock.Anything, mock.AnythingOfType("string"), "room-1", mock.AnythingOfType("time.Time")).
		Return(false, nil).Once()

	var saved *domain.ConnectionTicket
	mockTicketRepo.On("Save", mock.Anything, mock.MatchedBy(func(ticket *domain.ConnectionTicket) bool {
		saved = ticket
		return true
	})).Return(nil).Once()

	ticket, err := ticketService.IssueTicket(context.Background(), "room-1", "user-1")
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, saved, ticket)

	assert.Len(t, ticket.PinCode, domain.PinLength)
	for _, c := range ticket.PinCode {
		assert.True(t, c >= '0' && c <= '9', "pin must be digits only, got %q", ticket.PinCode)
	}
	assert.Equal(t, "room-1", ticket.RoomID)
	assert.Equal(t, "user-1", ticket.IssuedBy)
	assert.Equal(t, ticket.CreatedAt.Add(2*time.Hour), ticket.ValidUntil)
	mockTicketRepo.AssertExpectations(t)
}

func TestTicketService_IssueTicket_RerollsCollidingPin(t *testing.T) {
	mockTicketRepo := new(mocks.TicketRepository)
	ticketService := service.NewTicketService(mockTicketRepo, time.Hour)

	// First draw collides with a live ticket of another room.
	mockTicketRepo.On("PinInUse", mock.Anything, mock.AnythingOfType("string"), "room-2", mock.AnythingOfType("time.Time")).
		Return(true, nil).Once()
	mockTicketRepo.On("PinInUse", mock.Anything, mock.AnythingOfType("string"), "room-2", mock.AnythingOfType("time.Time")).
		Return(false, nil).Once()
	mockTicketRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.ConnectionTicket")).
		Return(nil).Once()

	_, err := ticketService.IssueTicket(context.Background(), "room-2", "user-1")
	require.NoError(t, err)
	mockTicketRepo.AssertExpectations(t)
	mockTicketRepo.AssertNumberOfCalls(t, "PinInUse", 2)
}

func TestTicketService_ValidateTicket_Valid(t *testing.T) {
	mockTicketRepo := new(mocks.TicketRepository)
	ticketService := service.NewTicketService(mockTicketRepo, time.Hour)

	ticket := &domain.ConnectionTicket{
		RoomID:     "room-1",
		PinCode:    "123456",
		ValidUntil: time.Now().Add(30 * time.Minute),
	}
	mockTicketRepo.On("FindByPin", mock.Anything, "room-1", "123456").Return(ticket, nil).Once()

	assert.NoError(t, ticketService.ValidateTicket(context.Background(), "123456", "room-1"))
	mockTicketRepo.AssertExpectations(t)
}

func TestTicketService_ValidateTicket_Expired(t *testing.T) {
	mockTicketRepo := new(mocks.TicketRepository)
	ticketService := service.NewTicketService(mockTicketRepo, time.Hour)

	stale := &domain.ConnectionTicket{
		RoomID:     "room-1",
		PinCode:    "123456",
		ValidUntil: time.Now().Add(-time.Minute),
	}
	mockTicketRepo.On("FindByPin", mock.Anything, "room-1", "123456").Return(stale, nil).Once()

	err := ticketService.ValidateTicket(context.Background(), "123456", "room-1")
	assert.True(t, errors.Is(err, service.ErrTicketExpired))
}

func TestTicketService_ValidateTicket_Unknown(t *testing.T) {
	mockTicketRepo := new(mocks.TicketRepository)
	ticketService := service.NewTicketService(mockTicketRepo, time.Hour)

	mockTicketRepo.On("FindByPin", mock.Anything, "room-1", "000000").
		Return(nil, repository.ErrTicketNotFound).Once()

	err := ticketService.ValidateTicket(context.Background(), "000000", "room-1")
	assert.True(t, errors.Is(err, service.ErrTicketNotFound))
	assert.False(t, errors.Is(err, service.ErrTicketExpired), "unknown and expired must stay distinct")
}

package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/repository"
)

// GormTicketRepository implements repository.TicketRepository on GORM/MySQL.
type GormTicketRepository struct {
	db *gorm.DB
}

// NewGormTicketRepository creates a GormTicketRepository.
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	if db == nil {
		panic("database connection cannot be nil for GormTicketRepository")
	}
	return &GormTicketRepository{db: db}
}

func (r *GormTicketRepository) Save(ctx context.Context, ticket *domain.ConnectionTicket) error {
	err := r.db.WithContext(ctx).Create(ticket).Error
	if err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save ticket %s: %w", ticket.ID, err)
	}
	return nil
}

func (r *GormTicketRepository) FindByPin(ctx context.Context, roomID, pin string) (*domain.ConnectionTicket, error) {
	var ticket domain.ConnectionTicket
	// Several tickets may carry the same PIN within a room across
	// re-issues; the one with the latest window decides.
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND pin_code = ?", roomID, pin).
		Order("valid_until DESC").
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTicketNotFound
		}
		return nil, fmt.Errorf("gorm: find ticket by pin for room %s: %w", roomID, err)
	}
	return &ticket, nil
}

func (r *GormTicketRepository) PinInUse(ctx context.Context, pin, excludeRoomID string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ConnectionTicket{}).
		Where("pin_code = ? AND room_id <> ? AND valid_until >= ?", pin, excludeRoomID, now).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count tickets by pin: %w", err)
	}
	return count > 0, nil
}

func (r *GormTicketRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("valid_until < ?", now).
		Delete(&domain.ConnectionTicket{})
	if result.Error != nil {
		return 0, fmt.Errorf("gorm: delete expired tickets: %w", result.Error)
	}
	return result.RowsAffected, nil
}

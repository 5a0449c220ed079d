package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/repository"
)

// SweepHandler processes ticket sweep tasks.
type SweepHandler struct {
	ticketRepo repository.TicketRepository
	log        *logrus.Entry
	// now is swappable for tests.
	now func() time.Time
}

// NewSweepHandler creates a SweepHandler.
func NewSweepHandler(ticketRepo repository.TicketRepository) *SweepHandler {
	if ticketRepo == nil {
		panic("TicketRepository cannot be nil for SweepHandler")
	}
	return &SweepHandler{
		ticketRepo: ticketRepo,
		log:        logrus.WithField("component", "ticket_sweeper"),
		now:        time.Now,
	}
}

// HandleTicketSweep deletes every ticket past its validity window.
// Returning an error lets asynq retry the sweep; a skipped run is
// harmless since admission never trusts an expired ticket anyway.
func (h *SweepHandler) HandleTicketSweep(ctx context.Context, _ *asynq.Task) error {
	removed, err := h.ticketRepo.DeleteExpired(ctx, h.now())
	if err != nil {
		h.log.WithError(err).Error("Ticket sweep failed")
		return err
	}
	if removed > 0 {
		h.log.WithField("removed", removed).Info("Expired connection tickets swept")
	} else {
		h.log.Debug("Ticket sweep found nothing to remove")
	}
	return nil
}

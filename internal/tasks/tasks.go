// Package tasks defines the background task types processed by the
// asynq worker.
package tasks

import (
	"github.com/hibiken/asynq"
)

// TypeTicketSweep removes connection tickets whose validity window has
// passed. Expiry is enforced at admission time; the sweep only keeps the
// tickets table from growing without bound.
const TypeTicketSweep = "ticket:sweep"

// NewTicketSweepTask builds a ticket sweep task. The task carries no
// payload; the handler sweeps everything expired at execution time.
func NewTicketSweepTask() *asynq.Task {
	return asynq.NewTask(TypeTicketSweep, nil)
}

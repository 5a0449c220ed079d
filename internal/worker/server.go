// Package worker runs the background task server. The only recurring
// task is the connection ticket sweep.
package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/repository"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/tasks"
)

// Server wraps the asynq worker server lifecycle.
type Server struct {
	server     *asynq.Server
	log        *logrus.Entry
	ticketRepo repository.TicketRepository
}

// NewServer creates the worker server over the shared Redis connection.
func NewServer(redisOpt asynq.RedisClientOpt, ticketRepo repository.TicketRepository, logger *logrus.Logger) *Server {
	if ticketRepo == nil {
		panic("TicketRepository cannot be nil for worker Server")
	}
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
		},
	)

	return &Server{
		server:     server,
		log:        logEntry,
		ticketRepo: ticketRepo,
	}
}

// Start runs the worker until Shutdown. Call from its own goroutine.
func (s *Server) Start() {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeTicketSweep, NewSweepHandler(s.ticketRepo).HandleTicketSweep)

	s.log.Info("Worker server starting...")
	if err := s.server.Run(mux); err != nil {
		if !errors.Is(err, asynq.ErrServerClosed) {
			s.log.Fatalf("Could not run worker server: %v", err)
		}
		s.log.Info("Worker server stopped.")
	}
}

// Shutdown stops the worker gracefully.
func (s *Server) Shutdown() {
	s.log.Info("Shutting down worker server...")
	s.server.Shutdown()
	s.log.Info("Worker server shut down complete.")
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Worker фоновая задача. Run возвращается при отмене ctx или когда
// задаче больше нечего делать.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

var ErrStopTimeout = errors.New("scheduler stop timeout")

type Scheduler struct {
	workers     []Worker
	stopTimeout time.Duration
	logger      *slog.Logger
	mu          sync.Mutex
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		workers:     make([]Worker, 0),
		stopTimeout: 10 * time.Second,
		logger:      logger,
	}
}

func (s *Scheduler) AddWorker(worker Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker)
}

// Run запускает все воркеры и ждет, пока ctx отменен и воркеры вернулись,
// либо пока все они не завершились сами. Ошибка воркера логируется и не
// останавливает остальных.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	workers := append([]Worker(nil), s.workers...)
	s.mu.Unlock()

	s.logger.Info("starting scheduler", "workers", len(workers))

	var g errgroup.Group
	for _, w := range workers {
		g.Go(func() error {
			return s.runWorker(ctx, w)
		})
	}

	// Все воркеры могут завершиться сами, например без ввода команд
	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("stopping scheduler")

	// Даем воркерам время на завершение
	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		s.logger.Info("scheduler stopped gracefully")
		return err
	case <-timer.C:
		s.logger.Warn("scheduler stop timeout", "timeout", s.stopTimeout)
		return ErrStopTimeout
	}
}

func (s *Scheduler) runWorker(ctx context.Context, w Worker) error {
	logger := s.logger.With("worker", w.Name())
	logger.Info("worker started")

	err := w.Run(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		logger.Info("worker stopped")
		return nil
	}

	logger.Error("worker failed", "error", err)
	return fmt.Errorf("%s worker: %w", w.Name(), err)
}

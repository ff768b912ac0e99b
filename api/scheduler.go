/*
scheduler.go - Idle form session sweeper

PURPOSE:
  Periodically drops form sessions that have been idle longer than the
  registry TTL, so abandoned browser tabs do not accumulate in memory.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Sweeps once immediately on start
  - Logs how many sessions were dropped when any were

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 minute)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewFormSweeper(handler.Forms, logger)
  sweeper.Start()
  // ... later
  sweeper.Stop()

  Or bound to a context (cmd/server runs it under an errgroup):
  g.Go(func() error { return sweeper.Run(ctx) })

SEE ALSO:
  - forms.go: FormRegistry.Sweep
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/overtime-engine/logging"
)

// FormSweeper drops expired form sessions on a timer.
type FormSweeper struct {
	Forms         *FormRegistry
	CheckInterval time.Duration
	Enabled       bool

	logger *slog.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewFormSweeper creates a new sweeper.
func NewFormSweeper(forms *FormRegistry, logger *slog.Logger) *FormSweeper {
	if logger == nil {
		logger = logging.Discard()
	}
	return &FormSweeper{
		Forms:         forms,
		CheckInterval: time.Minute,
		Enabled:       true,
		logger:        logging.Component(logger, "form_sweeper"),
	}
}

// Start begins sweeping in the background.
func (s *FormSweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.logger.Info("disabled, not starting")
		return
	}
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run(ctx)
	}()
}

// Stop stops a sweeper started with Start.
func (s *FormSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.wg.Wait()
		s.cancel = nil
		s.logger.Info("stopped")
	}
}

// Run sweeps until ctx is cancelled. It always returns nil.
func (s *FormSweeper) Run(ctx context.Context) error {
	if !s.Enabled {
		return nil
	}

	ticker := time.NewTicker(s.CheckInterval)
	defer ticker.Stop()

	s.logger.Info("started", "interval", s.CheckInterval)

	// Run immediately on start
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *FormSweeper) sweep() {
	if removed := s.Forms.Sweep(); removed > 0 {
		s.logger.Debug("dropped idle forms", "count", removed, "remaining", s.Forms.Len())
	}
}

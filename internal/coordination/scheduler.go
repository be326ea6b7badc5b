package coordination

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Scheduler runs periodic maintenance — principally the stale-claim
// recovery sweep of §4.7 — on a cron schedule, adapted from the
// teacher's robfig/cron-backed scheduler service.
type Scheduler struct {
	cron   *cron.Cron
	logger arbor.ILogger
	mu     sync.Mutex
	phases []string
	coord  *Coordinator
}

// NewScheduler returns a Scheduler that will sweep RecoverStale for
// each of phases when started.
func NewScheduler(coord *Coordinator, logger arbor.ILogger, phases ...string) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
		coord:  coord,
		phases: phases,
	}
}

// Start registers the sweep under cronExpr (e.g. "*/5 * * * *" for
// every five minutes) and begins the cron scheduler's goroutine.
func (s *Scheduler) Start(ctx context.Context, cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.cron.AddFunc(cronExpr, func() {
		for _, phase := range s.phases {
			n, err := s.coord.RecoverStale(ctx, phase)
			if err != nil {
				s.logger.Error().Err(err).Str("phase", phase).Msg("coordination: stale-claim sweep failed")
				continue
			}
			if n > 0 {
				s.logger.Info().Int("recovered", n).Str("phase", phase).Msg("coordination: stale-claim sweep recovered runs")
			}
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron scheduler, waiting for any in-flight sweep to
// finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}

package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/coordinator"
)

// DefaultJobTimeout bounds one refresh run.
const DefaultJobTimeout = 30 * time.Second

// Refresher is implemented by coordinator.Coordinator.
type Refresher interface {
	RefreshAll(ctx context.Context) (coordinator.RefreshReport, error)
}

// Scheduler periodically refreshes every saved location.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	refresher  Refresher
	interval   time.Duration
	jobTimeout time.Duration
	logger     *zap.Logger
}

// New creates a Scheduler. An interval of zero or less disables it.
func New(refresher Refresher, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		refresher:  refresher,
		interval:   interval,
		jobTimeout: DefaultJobTimeout,
		logger:     logger.Named("scheduler"),
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
// The first run happens one interval after Start.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("periodic refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().WaitForSchedule().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("periodic refresh scheduled", zap.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	s.logger.Debug("running refresh job")
	report, err := s.refresher.RefreshAll(ctx)
	if err != nil {
		s.logger.Error("refresh job failed", zap.Error(err))
		return
	}
	for _, f := range report.Failed {
		s.logger.Warn("refresh failed", zap.String("city", f.City), zap.Error(f.Err))
	}
	s.logger.Debug("completed refresh job", zap.Int("updated", len(report.Updated)))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

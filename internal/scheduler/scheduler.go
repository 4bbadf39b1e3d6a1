package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/sincov/airmon-go/internal/logging"
	"github.com/sincov/airmon-go/internal/services"
)

// Config controls the background jobs.
type Config struct {
	CollectInterval time.Duration
	BackfillHours   int
	ReportTime      string // "HH:MM", UTC
}

// Scheduler runs the periodic ingest and daily report jobs. Either job
// can be absent; the scheduler only registers what it was given.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       Config
	collector *services.CollectorService
	reports   *services.DailyReportService
	logger    *logrus.Entry
}

func New(cfg Config, collector *services.CollectorService, reports *services.DailyReportService, logger *logging.Logger) *Scheduler {
	if cfg.CollectInterval <= 0 {
		cfg.CollectInterval = time.Hour
	}
	if cfg.ReportTime == "" {
		cfg.ReportTime = "00:10"
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		cfg:       cfg,
		collector: collector,
		reports:   reports,
		logger:    logger.WithComponent("scheduler"),
	}
}

// Start registers the jobs and starts the scheduler asynchronously. When
// a collector is configured it also runs one backfill pass immediately so
// a fresh instance has history to predict from.
func (s *Scheduler) Start() error {
	if s.collector != nil {
		if _, err := s.scheduler.Every(s.cfg.CollectInterval).Do(s.runCollect); err != nil {
			return err
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			hours := s.cfg.BackfillHours
			if hours <= 0 {
				hours = 24
			}
			s.logger.WithField("hours", hours).Info("Running startup backfill")
			if err := s.collector.Collect(ctx, hours); err != nil {
				s.logger.WithError(err).Warn("Startup backfill failed")
			}
		}()
	}

	if s.reports != nil {
		if _, err := s.scheduler.Every(1).Day().At(s.cfg.ReportTime).Do(s.runDailyReports); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and drops any pending jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runCollect() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Fetch two hours so late retransmissions from the previous cycle
	// still land; the aggregator de-duplicates them.
	if err := s.collector.Collect(ctx, 2); err != nil {
		s.logger.WithError(err).Warn("Collection cycle failed")
	}
}

func (s *Scheduler) runDailyReports() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	if err := s.reports.GenerateDaily(ctx, yesterday); err != nil {
		s.logger.WithError(err).Warn("Daily report generation failed")
	}
}

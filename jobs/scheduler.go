package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-engine/realtime"
	"github.com/Dosada05/tournament-engine/scheduling"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/robfig/cron/v3"
)

// DefaultPlannerGap используется планировщиком по доступности.
const DefaultPlannerGap = 60 * time.Minute

type Config struct {
	ConflictScanSpec string
	PlannerSpec      string
	PlannerGap       time.Duration
	// Таймаут одного прохода по всем активным турнирам.
	RunTimeout time.Duration
}

// Scheduler периодически проверяет расписания активных турниров.
type Scheduler struct {
	cron      *cron.Cron
	service   services.TournamentService
	publisher realtime.Publisher
	config    Config
	logger    *slog.Logger
}

func NewScheduler(service services.TournamentService, publisher realtime.Publisher, config Config, logger *slog.Logger) *Scheduler {
	if config.PlannerGap <= 0 {
		config.PlannerGap = DefaultPlannerGap
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = 2 * time.Minute
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(cronLogger{logger})),
		service:   service,
		publisher: publisher,
		config:    config,
		logger:    logger,
	}
}

func (s *Scheduler) Start() error {
	if s.config.ConflictScanSpec != "" {
		if _, err := s.cron.AddFunc(s.config.ConflictScanSpec, s.runConflictScan); err != nil {
			return fmt.Errorf("schedule conflict scan %q: %w", s.config.ConflictScanSpec, err)
		}
	}
	if s.config.PlannerSpec != "" {
		if _, err := s.cron.AddFunc(s.config.PlannerSpec, s.runPlanner); err != nil {
			return fmt.Errorf("schedule planner %q: %w", s.config.PlannerSpec, err)
		}
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("conflict_scan", s.config.ConflictScanSpec),
		slog.String("planner", s.config.PlannerSpec))
	return nil
}

// Stop ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("cron scheduler stopped")
}

func (s *Scheduler) runConflictScan() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.RunTimeout)
	defer cancel()
	s.ScanConflicts(ctx)
}

func (s *Scheduler) runPlanner() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.RunTimeout)
	defer cancel()
	s.PlanAll(ctx)
}

// ScanConflicts рассылает конфликты расписания каждого активного турнира.
// Турниры без конфликтов не получают событие.
func (s *Scheduler) ScanConflicts(ctx context.Context) int {
	tournaments, err := s.service.ListActive(ctx)
	if err != nil {
		s.logger.Error("conflict scan: list active tournaments", slog.Any("error", err))
		return 0
	}

	notified := 0
	for _, t := range tournaments {
		conflicts, err := s.service.Conflicts(ctx, t.ID)
		if err != nil {
			s.logger.Warn("conflict scan failed", slog.Int("tournament_id", t.ID), slog.Any("error", err))
			continue
		}
		if len(conflicts) == 0 {
			continue
		}
		s.publisher.Publish(t.ID, realtime.EventScheduleConflicts, conflicts)
		notified++
	}
	s.logger.Info("conflict scan finished",
		slog.Int("tournaments", len(tournaments)),
		slog.Int("with_conflicts", notified))
	return notified
}

// PlanAll запускает планирование по доступности для всех активных турниров.
func (s *Scheduler) PlanAll(ctx context.Context) int {
	tournaments, err := s.service.ListActive(ctx)
	if err != nil {
		s.logger.Error("planner: list active tournaments", slog.Any("error", err))
		return 0
	}

	assigned := 0
	for _, t := range tournaments {
		res, err := s.service.PlanSchedule(ctx, t.ID, scheduling.AvailabilityConfig{Gap: s.config.PlannerGap})
		if err != nil {
			s.logger.Warn("planner failed", slog.Int("tournament_id", t.ID), slog.Any("error", err))
			continue
		}
		assigned += len(res.Assignments)
	}
	s.logger.Info("planner finished", slog.Int("tournaments", len(tournaments)), slog.Int("assigned", assigned))
	return assigned
}

// cronLogger пробрасывает логи cron в slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}

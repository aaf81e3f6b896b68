package schedule

import (
	"context"
	"time"

	"github.com/medimeet/platform/internal/availability"
	"github.com/medimeet/platform/internal/observability/metrics"
	"github.com/medimeet/platform/pkg/logging"
)

// WindowSource supplies the doctor's active availability window.
type WindowSource interface {
	WindowForDoctor(ctx context.Context, doctorID string) (*availability.Window, error)
}

// BookedSource supplies the doctor's scheduled intervals inside the horizon.
type BookedSource interface {
	ScheduledIntervals(ctx context.Context, doctorID string, from, to time.Time) ([]Interval, error)
}

// Service generates bookable day schedules for doctors.
type Service struct {
	windows     WindowSource
	booked      BookedSource
	cache       *Cache
	metrics     *metrics.ScheduleMetrics
	horizonDays int
	slotMinutes int
	logger      *logging.Logger
	now         func() time.Time
}

// NewService constructs a schedule service.
func NewService(windows WindowSource, booked BookedSource, cache *Cache, m *metrics.ScheduleMetrics, horizonDays, slotMinutes int, logger *logging.Logger) *Service {
	if windows == nil || booked == nil {
		panic("schedule: window and booked sources required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	return &Service{
		windows:     windows,
		booked:      booked,
		cache:       cache,
		metrics:     m,
		horizonDays: horizonDays,
		slotMinutes: slotMinutes,
		logger:      logger,
		now:         time.Now,
	}
}

// DaySchedule returns the doctor's bookable slots across the horizon.
// A doctor with no availability window yields ErrWindowNotFound, never an
// empty schedule.
func (s *Service) DaySchedule(ctx context.Context, doctorID string) ([]DaySlots, error) {
	if days, ok := s.cache.Get(ctx, doctorID); ok {
		s.metrics.ObserveGeneration("cache_hit", 0)
		return days, nil
	}

	start := time.Now()
	now := s.now()

	window, err := s.windows.WindowForDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	horizonEnd := now.AddDate(0, 0, s.horizonDays)
	booked, err := s.booked.ScheduledIntervals(ctx, doctorID, now, horizonEnd)
	if err != nil {
		return nil, err
	}

	days, err := Generate(window, booked, now, s.horizonDays, s.slotMinutes)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, doctorID, days)
	s.metrics.ObserveGeneration("generated", time.Since(start).Seconds())
	return days, nil
}

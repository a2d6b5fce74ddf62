package services

import (
	"context"
	"time"

	"paga/internal/log"
	"paga/internal/storage"
)

// ExportDueChecker decides whether the settled-month export should run
// now, given when it last ran.
type ExportDueChecker interface {
	IsDue(lastRun, now time.Time) bool
}

// MonthlyChecker runs the export once per calendar month, after the
// previous month has fully settled.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastRun, now time.Time) bool {
	if lastRun.IsZero() {
		return true
	}
	return lastRun.Year() != now.Year() || lastRun.Month() != now.Month()
}

// ExportScheduler periodically queues a summary export of the just
// -ended month for every registered user. Failures are logged and
// retried on the next cycle; the export path never touches sessions.
type ExportScheduler struct {
	users    storage.UserStore
	profiles *ProfileService
	checker  ExportDueChecker
	interval time.Duration
	logger   *log.Logger

	lastRun time.Time
	now     func() time.Time
}

func NewExportScheduler(users storage.UserStore, profiles *ProfileService, checker ExportDueChecker, interval time.Duration, logger *log.Logger) *ExportScheduler {
	return &ExportScheduler{
		users:    users,
		profiles: profiles,
		checker:  checker,
		interval: interval,
		logger:   logger.WithComponent("export-scheduler"),
		now:      time.Now,
	}
}

// Run polls until ctx is cancelled.
func (s *ExportScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// First check immediately so a restart does not wait a full cycle.
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *ExportScheduler) tick(ctx context.Context) {
	now := s.now()
	if !s.checker.IsDue(s.lastRun, now) {
		return
	}
	if err := s.exportPreviousMonth(ctx, now); err != nil {
		s.logger.ErrorContext(ctx, "Settled-month export failed, will retry next cycle", "error", err)
		return
	}
	s.lastRun = now
}

// previousMonth steps back one month in the 0-11 convention.
func previousMonth(year, month int) (int, int) {
	if month == 0 {
		return year - 1, 11
	}
	return year, month - 1
}

func (s *ExportScheduler) exportPreviousMonth(ctx context.Context, now time.Time) error {
	year, month := previousMonth(now.Year(), int(now.Month())-1)

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return err
	}

	queued := 0
	for _, u := range users {
		if u.Status != storage.StatusApproved {
			continue
		}
		if err := s.profiles.RequestExport(ctx, u.UID, year, month); err != nil {
			return err
		}
		queued++
	}

	s.logger.InfoContext(ctx, "Queued settled-month exports",
		"year", year, "month", month, "users", queued)
	return nil
}

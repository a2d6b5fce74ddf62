package worker

import (
	"context"
	"errors"
	"fmt"

	"paga/internal/amqp"
	"paga/internal/core"
	"paga/internal/log"
	"paga/internal/profile"
	"paga/internal/sheets"
	"paga/internal/storage"
)

// ExportWorker turns export requests into summary rows on the
// spreadsheet. It reads straight from the record store, so a user does
// not need a live session for their month to be exported.
type ExportWorker struct {
	records  storage.RecordStore
	appender sheets.SummaryAppender
	logger   *log.Logger
}

func NewExportWorker(records storage.RecordStore, appender sheets.SummaryAppender, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		records:  records,
		appender: appender,
		logger:   logger.WithComponent("export-worker"),
	}
}

// Handle processes one summary-export message.
func (w *ExportWorker) Handle(ctx context.Context, body []byte) error {
	msg, err := amqp.SummaryExportMessageFromJSON(body)
	if err != nil {
		w.logger.ErrorContext(ctx, "Dropping malformed export message", "error", err)
		return nil
	}

	summary, err := w.Summarize(ctx, msg.UID, msg.Year, msg.Month)
	if err != nil {
		return err
	}

	if err := w.appender.AppendSummary(ctx, summary); err != nil {
		return fmt.Errorf("append summary for %s %d/%d: %w", msg.UID, msg.Year, msg.Month, err)
	}

	w.logger.InfoContext(ctx, "Month summary exported",
		"uid", msg.UID, "year", msg.Year, "month", msg.Month,
		"days_worked", summary.DaysWorked, "total", summary.Total)
	return nil
}

// Summarize loads the user's record and reduces the requested month to
// its summary row. A user without a record yields an all-zero summary.
func (w *ExportWorker) Summarize(ctx context.Context, uid string, year, month int) (core.MonthSummary, error) {
	raw, err := w.records.LoadRecord(ctx, uid)
	if errors.Is(err, storage.ErrNotFound) {
		raw = nil
	} else if err != nil {
		return core.MonthSummary{}, fmt.Errorf("load record for %s: %w", uid, err)
	}

	store := profile.NewStore()
	p := store.Hydrate(raw)
	entries := store.MonthEntries(year, month)
	return core.Summarize(uid, year, month, entries, &p), nil
}

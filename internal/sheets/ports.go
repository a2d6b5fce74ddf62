package sheets

import (
	"context"

	"paga/internal/core"
)

// SummaryAppender is the outbound port for the monthly summary export.
type SummaryAppender interface {
	// AppendSummary writes one settled user month as a spreadsheet row.
	AppendSummary(ctx context.Context, s core.MonthSummary) error
}

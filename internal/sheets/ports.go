package sheets

import (
	"context"
	"paydash/internal/core"
)

// Ports for outbound adapters.
type (
	// SummaryWriter appends one aggregated month of spending to an
	// external sheet and returns a reference to the written row.
	SummaryWriter interface {
		WriteMonthSummary(ctx context.Context, s core.MonthSummary) (rowRef string, err error)
	}
)

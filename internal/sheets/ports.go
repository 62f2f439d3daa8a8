package sheets

import (
	"context"

	"github.com/hatauchi-tech/Fukui-BI/internal/core"
)

// Ports for outbound adapters.
type (
	// SummaryWriter pushes the computed summary rows for one period to an
	// external destination (a spreadsheet in production, memory in tests).
	SummaryWriter interface {
		WriteSummaries(ctx context.Context, period core.Period, rows []core.Summary) error
	}
)

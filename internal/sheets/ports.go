package sheets

import (
	"context"
	"errors"

	"budgetbolt/internal/reports"
)

// ErrRejected marks a write the destination refused for good, such as a
// missing spreadsheet or revoked access. Retrying it cannot succeed.
var ErrRejected = errors.New("report rejected by the spreadsheet")

// Ports for outbound adapters.
type (
	// ReportWriter persists a rendered monthly report for an owner and
	// returns a reference to where it was written.
	ReportWriter interface {
		WriteMonthlyReport(ctx context.Context, ownerID string, r reports.MonthlyReport) (ref string, err error)
	}
)

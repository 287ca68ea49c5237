// Package export writes monthly reports to the spreadsheet in response to
// export requests taken off the broker.
package export

import (
	"context"
	"errors"
	"fmt"

	"budgetbolt/internal/amqp"
	"budgetbolt/internal/core"
	"budgetbolt/internal/log"
	"budgetbolt/internal/reports"
	"budgetbolt/internal/sheets"
)

// Export outcomes reported to the Recorder.
const (
	ResultWritten  = "written"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

// ReportSource builds the report to export. *reports.Builder implements it.
type ReportSource interface {
	MonthlyReport(ctx context.Context, ownerID string, year, month int) (reports.MonthlyReport, error)
}

// Recorder counts export outcomes.
type Recorder interface {
	ObserveExport(result string)
}

type Worker struct {
	source   ReportSource
	writer   sheets.ReportWriter
	recorder Recorder
	logger   *log.StructuredLogger
}

func NewWorker(source ReportSource, writer sheets.ReportWriter, recorder Recorder, logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Worker{
		source:   source,
		writer:   writer,
		recorder: recorder,
		logger:   log.NewStructuredLogger(logger.WithComponent(log.ComponentExport)),
	}
}

// HandleExportRequest rebuilds the requested report and writes it out.
// Requests that can never succeed are logged and acknowledged; any other
// failure is returned so the message is redelivered.
func (w *Worker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequest) error {
	report, err := w.source.MonthlyReport(ctx, msg.OwnerID, msg.Year, msg.Month)
	if errors.Is(err, core.ErrInvalidMonth) || errors.Is(err, core.ErrMissingOwner) {
		w.observe(ResultRejected)
		w.logger.LogError(ctx, "Dropping export request", err, log.ComponentExport, log.OpExport,
			log.NewFields().WithPeriod(msg.Year, msg.Month))
		return nil
	}
	if err != nil {
		w.observe(ResultFailed)
		return fmt.Errorf("build monthly report: %w", err)
	}

	ref, err := w.writer.WriteMonthlyReport(ctx, msg.OwnerID, report)
	if errors.Is(err, sheets.ErrRejected) {
		w.observe(ResultRejected)
		w.logger.LogError(ctx, "Dropping export request", err, log.ComponentExport, log.OpExport,
			log.NewFields().WithPeriod(msg.Year, msg.Month))
		return nil
	}
	if err != nil {
		w.observe(ResultFailed)
		return fmt.Errorf("write monthly report: %w", err)
	}

	w.observe(ResultWritten)
	w.logger.LogExportWritten(ctx, msg.OwnerID, msg.Year, msg.Month, ref)
	return nil
}

func (w *Worker) observe(result string) {
	if w.recorder != nil {
		w.recorder.ObserveExport(result)
	}
}

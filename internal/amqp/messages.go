package amqp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"budgetbolt/internal/core"
)

// ExportRequest asks the worker to write one owner's monthly report to the
// spreadsheet. The worker rebuilds the report from the store, so the message
// only carries the coordinates.
type ExportRequest struct {
	OwnerID     string    `json:"owner_id"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewExportRequest(ownerID string, year, month int) *ExportRequest {
	return &ExportRequest{
		OwnerID:     ownerID,
		Year:        year,
		Month:       month,
		RequestedAt: time.Now().UTC(),
	}
}

func (m *ExportRequest) Validate() error {
	if strings.TrimSpace(m.OwnerID) == "" {
		return core.ErrMissingOwner
	}
	if _, err := core.NewYearMonth(m.Year, m.Month); err != nil {
		return err
	}
	return nil
}

// Period returns the month as a YearMonth. Call Validate first.
func (m *ExportRequest) Period() core.YearMonth {
	return core.YearMonth{Year: m.Year, Month: m.Month}
}

func (m *ExportRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestFromJSON decodes and validates a message body.
func ExportRequestFromJSON(data []byte) (*ExportRequest, error) {
	var msg ExportRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("export request: %w", err)
	}
	return &msg, nil
}

package amqp

import (
	"encoding/json"
	"time"
)

// SummaryExportMessage asks the export worker to push the summaries for one
// accounting period to the configured destination. It carries only the
// period, the worker recomputes the rows from the current datasets.
type SummaryExportMessage struct {
	Period      string    `json:"period"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewSummaryExportMessage creates an export request for a period. Reason is
// free-form ("reload", "manual") and only used for logging.
func NewSummaryExportMessage(period, reason string) *SummaryExportMessage {
	return &SummaryExportMessage{
		Period:      period,
		Reason:      reason,
		RequestedAt: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SummaryExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func SummaryExportMessageFromJSON(data []byte) (*SummaryExportMessage, error) {
	var msg SummaryExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

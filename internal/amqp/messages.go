package amqp

import (
	"encoding/json"
	"time"
)

// VerificationMailMessage asks the worker to deliver a registration
// code to the operator address.
type VerificationMailMessage struct {
	Username  string    `json:"username"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

func NewVerificationMailMessage(username, code string) *VerificationMailMessage {
	return &VerificationMailMessage{
		Username:  username,
		Code:      code,
		Timestamp: time.Now(),
	}
}

func (m *VerificationMailMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func VerificationMailMessageFromJSON(data []byte) (*VerificationMailMessage, error) {
	var msg VerificationMailMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SummaryExportMessage asks the worker to export one user month to the
// summary spreadsheet. The worker re-reads the stored record, so the
// message stays small and superseded duplicates are harmless.
type SummaryExportMessage struct {
	UID       string    `json:"uid"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSummaryExportMessage(uid string, year, month int) *SummaryExportMessage {
	return &SummaryExportMessage{
		UID:       uid,
		Year:      year,
		Month:     month,
		Timestamp: time.Now(),
	}
}

func (m *SummaryExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SummaryExportMessageFromJSON(data []byte) (*SummaryExportMessage, error) {
	var msg SummaryExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

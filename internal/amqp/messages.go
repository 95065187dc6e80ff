package amqp

import (
	"encoding/json"
	"time"
)

// RateRefreshMessage asks a worker to fetch fresh exchange rates from the
// external source. It carries no rate data, only who asked and when; the
// worker fetches and appends the rows itself.
type RateRefreshMessage struct {
	RequestedBy string    `json:"requested_by"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRateRefreshMessage creates a refresh request stamped with the current time.
func NewRateRefreshMessage(requestedBy string) *RateRefreshMessage {
	return &RateRefreshMessage{
		RequestedBy: requestedBy,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RateRefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func RateRefreshMessageFromJSON(data []byte) (*RateRefreshMessage, error) {
	var msg RateRefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

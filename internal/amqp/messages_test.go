package amqp

import (
	"testing"
	"time"
)

func TestRateRefreshMessageRoundTrip(t *testing.T) {
	msg := NewRateRefreshMessage("api")
	if msg.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	decoded, err := RateRefreshMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if decoded.RequestedBy != "api" {
		t.Errorf("requested_by = %q, want api", decoded.RequestedBy)
	}
	if !decoded.Timestamp.Equal(msg.Timestamp.Truncate(time.Nanosecond)) {
		t.Errorf("timestamp = %v, want %v", decoded.Timestamp, msg.Timestamp)
	}
}

func TestRateRefreshMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := RateRefreshMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

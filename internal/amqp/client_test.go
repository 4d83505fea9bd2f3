package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{63, 30 * time.Second}, // shift overflow stays capped
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection closed", errors.New("connection closed by server"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"channel closed", errors.New("message channel closed"), true},
		{"unrelated error", errors.New("queue does not exist"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestChangeMessageRoundTrip(t *testing.T) {
	msg := NewChangeMessage("transactions", 42)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	back, err := ChangeMessageFromJSON(body)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if back.Collection != "transactions" || back.Count != 42 {
		t.Errorf("round-trip: %+v", back)
	}
}

func TestChangeMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := ChangeMessageFromJSON([]byte("{broken")); err == nil {
		t.Error("expected error for malformed body")
	}
}

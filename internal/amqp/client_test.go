package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
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
		{40, 30 * time.Second}, // shift overflow still capped
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
		{"connection refused", errors.New("connection refused"), true},
		{"connection closed", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"handler failure", errors.New("insert notification: disk full"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestNotificationMessageRoundTrip(t *testing.T) {
	recipient := uuid.New()
	msg := NewNotificationMessage(recipient, "New expense", "You were allocated 30.00", "EXPENSE_ADDED", "ref-1")

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	decoded, err := NotificationMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if decoded.RecipientID != recipient {
		t.Errorf("recipient = %s, want %s", decoded.RecipientID, recipient)
	}
	if decoded.Category != "EXPENSE_ADDED" || decoded.ReferenceID != "ref-1" {
		t.Errorf("decoded message fields differ: %+v", decoded)
	}
	if decoded.Timestamp.IsZero() {
		t.Error("timestamp not preserved")
	}
}

func TestNotificationMessageFromJSONInvalid(t *testing.T) {
	if _, err := NotificationMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected decode error")
	}
}

package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NotificationMessage is the dispatch payload published after a ledger
// mutation commits. Delivery is best-effort: the worker consumes these
// and persists notification rows for the recipient.
type NotificationMessage struct {
	RecipientID uuid.UUID `json:"recipient_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Category    string    `json:"category"`
	ReferenceID string    `json:"reference_id"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewNotificationMessage(recipient uuid.UUID, title, message, category, referenceID string) *NotificationMessage {
	return &NotificationMessage{
		RecipientID: recipient,
		Title:       title,
		Message:     message,
		Category:    category,
		ReferenceID: referenceID,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON creates a message from JSON bytes
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

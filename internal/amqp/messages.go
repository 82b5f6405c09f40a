package amqp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"wrapped/internal/core"
)

// MessageType tags recap messages in the AMQP Type property.
const MessageType = "wrapped.recap.v1"

// RecapMessage carries one computed recap to downstream consumers.
type RecapMessage struct {
	ID        string        `json:"id"`
	Year      int           `json:"year"`
	Label     string        `json:"label"`
	Summary   *core.Summary `json:"summary"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewRecapMessage creates a message with a fresh id. A nil summary is
// published as an empty recap.
func NewRecapMessage(year int, label string, summary *core.Summary) *RecapMessage {
	return &RecapMessage{
		ID:        uuid.NewString(),
		Year:      year,
		Label:     label,
		Summary:   summary,
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey appends the year (or "all") to base, e.g. "recaps.2024".
func (m *RecapMessage) RoutingKey(base string) string {
	suffix := "all"
	if m.Year != core.AllYears {
		suffix = strconv.Itoa(m.Year)
	}
	if base == "" {
		return suffix
	}
	return base + "." + suffix
}

// ToJSON converts the message to JSON bytes
func (m *RecapMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecapMessageFromJSON creates a message from JSON bytes
func RecapMessageFromJSON(data []byte) (*RecapMessage, error) {
	var msg RecapMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("recap message without id")
	}
	return &msg, nil
}

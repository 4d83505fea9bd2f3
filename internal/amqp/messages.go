package amqp

import (
	"encoding/json"
	"time"
)

// ChangeMessage is a lightweight notification that one collection
// changed. It carries only the collection name and its new size; the
// worker fetches the actual data from the blob store.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	Count      int       `json:"count"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(collection string, count int) *ChangeMessage {
	return &ChangeMessage{
		Collection: collection,
		Count:      count,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

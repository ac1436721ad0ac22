package amqp

import (
	"encoding/json"
	"time"
)

// Message types carried in the AMQP delivery Type field.
const (
	TypeMovementSync   = "movement.sync"
	TypeMovementDelete = "movement.delete"
)

// MovementSyncMessage asks the worker to export one movement to the
// backup sheet. It carries only the id and version; the worker fetches
// the full movement from the database.
type MovementSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMovementSyncMessage creates a new sync message with just ID and version
func NewMovementSyncMessage(id, version int64) *MovementSyncMessage {
	return &MovementSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MovementSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MovementSyncMessageFromJSON creates a message from JSON bytes
func MovementSyncMessageFromJSON(data []byte) (*MovementSyncMessage, error) {
	var msg MovementSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MovementDeleteMessage asks the worker to remove one movement from the
// backup sheet after it was deleted locally.
type MovementDeleteMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMovementDeleteMessage creates a delete message for the given id
func NewMovementDeleteMessage(id int64) *MovementDeleteMessage {
	return &MovementDeleteMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MovementDeleteMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MovementDeleteMessageFromJSON creates a message from JSON bytes
func MovementDeleteMessageFromJSON(data []byte) (*MovementDeleteMessage, error) {
	var msg MovementDeleteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

package amqp

import (
	"encoding/json"
	"time"
)

// MeetingSyncMessage asks the worker to export one meeting revision.
// The worker reloads the meeting from the database, so only the id travels.
type MeetingSyncMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMeetingSyncMessage(id string, version int64) *MeetingSyncMessage {
	return &MeetingSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MeetingSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MeetingSyncMessageFromJSON(data []byte) (*MeetingSyncMessage, error) {
	var msg MeetingSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

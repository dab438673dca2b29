package amqp

import (
	"encoding/json"
	"time"

	"fust/internal/core"
)

// MutatieCreatedMessage announces a newly recorded fust movement.
// Consumers re-read the ledger; the payload only identifies what changed.
type MutatieCreatedMessage struct {
	ID        int64     `json:"id"`
	PartijID  int64     `json:"partij_id"`
	Datum     string    `json:"datum"`
	Geladen   int64     `json:"geladen"`
	Gelost    int64     `json:"gelost"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMutatieCreatedMessage(m core.Mutatie) *MutatieCreatedMessage {
	return &MutatieCreatedMessage{
		ID:        m.ID,
		PartijID:  m.PartijID,
		Datum:     m.Datum.String(),
		Geladen:   m.Geladen,
		Gelost:    m.Gelost,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MutatieCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MutatieCreatedMessageFromJSON(data []byte) (*MutatieCreatedMessage, error) {
	var msg MutatieCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

package amqp

import (
	"encoding/json"
	"time"
)

// BillIndexedMessage announces that one document has been consolidated
// into the store. It carries only the row ID and source filename; the
// worker fetches whatever else it needs from the database.
type BillIndexedMessage struct {
	ID             int64     `json:"id"`
	SourceFilename string    `json:"source_filename"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewBillIndexedMessage creates an indexed message for one stored bill.
func NewBillIndexedMessage(id int64, sourceFilename string) *BillIndexedMessage {
	return &BillIndexedMessage{
		ID:             id,
		SourceFilename: sourceFilename,
		Timestamp:      time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BillIndexedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BillIndexedMessageFromJSON creates a message from JSON bytes
func BillIndexedMessageFromJSON(data []byte) (*BillIndexedMessage, error) {
	var msg BillIndexedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

package amqp

import (
	"testing"
	"time"
)

func TestBillIndexedMessageRoundTrip(t *testing.T) {
	msg := NewBillIndexedMessage(42, "bill_001.jpg")
	if msg.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	decoded, err := BillIndexedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if decoded.ID != 42 {
		t.Errorf("id = %d, want 42", decoded.ID)
	}
	if decoded.SourceFilename != "bill_001.jpg" {
		t.Errorf("source = %q, want bill_001.jpg", decoded.SourceFilename)
	}
	if !decoded.Timestamp.Truncate(time.Second).Equal(msg.Timestamp.Truncate(time.Second)) {
		t.Errorf("timestamp = %v, want %v", decoded.Timestamp, msg.Timestamp)
	}
}

func TestBillIndexedMessageFromInvalidJSON(t *testing.T) {
	if _, err := BillIndexedMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("FromJSON accepted invalid payload")
	}
}
